package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/examgate/internal/audit"
	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
	"github.com/saturnino-fabrica-de-software/examgate/internal/extractor"
	"github.com/saturnino-fabrica-de-software/examgate/internal/matcher"
	"github.com/saturnino-fabrica-de-software/examgate/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/examgate/internal/repository/memory"
	"github.com/saturnino-fabrica-de-software/examgate/internal/workerpool"
)

// harness wires the workflows the way cmd/api does with STORAGE=memory and
// PROVIDER_TYPE=mock.
type harness struct {
	provider    *mock.Provider
	students    *memory.StudentStore
	logs        *memory.LogStore
	enrollment  *StudentService
	rooms       *RoomService
	recognition *RecognitionService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	p := mock.New()
	students := memory.NewStudentStore()
	logs := memory.NewLogStore()
	pool := workerpool.New(4)
	ext := extractor.New(p, pool, extractor.Config{}, discardLogger())
	m := matcher.New(0)
	rooms := NewRoomService(memory.NewRoomStore(), students, discardLogger())

	return &harness{
		provider:    p,
		students:    students,
		logs:        logs,
		enrollment:  NewStudentService(students, ext, m, discardLogger()),
		rooms:       rooms,
		recognition: NewRecognitionService(students, rooms, ext, m, pool, audit.NewStoreLogger(logs), discardLogger()),
	}
}

func photo(t *testing.T, seed int64) []byte {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (h *harness) enroll(t *testing.T, studentID, index string, img []byte) *EnrollmentResult {
	t.Helper()
	result, err := h.enrollment.Enroll(context.Background(), EnrollStudentInput{
		StudentID: studentID, IndexNumber: index,
		FirstName: "First", LastName: studentID, Email: studentID + "@example.com",
		Image: img,
	})
	require.NoError(t, err)
	return result
}

func TestWorkflow_EnrollThenRecognizeSamePhoto(t *testing.T) {
	h := newHarness(t)
	img := photo(t, 1)

	result := h.enroll(t, "20210001", "0100001", img)
	assert.Equal(t, FaceEnrolled, result.FaceStatus)
	require.Len(t, result.Student.Embedding, domain.EmbeddingDimension)

	out, err := h.recognition.Recognize(context.Background(), img, "gate-1")
	require.NoError(t, err)
	require.Equal(t, domain.RecognitionRecognized, out.Status)
	assert.Equal(t, "20210001", *out.StudentID)
	assert.Greater(t, *out.Confidence, 0.9)
	assert.Less(t, *out.Distance, 0.1)
}

func TestWorkflow_NoFacePhotoIsAuditedOnce(t *testing.T) {
	h := newHarness(t)
	h.enroll(t, "20210001", "0100001", photo(t, 1))

	blank := photo(t, 2)
	h.provider.SetFaces(blank)

	out, err := h.recognition.Recognize(context.Background(), blank, "gate-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RecognitionNoFace, out.Status)

	events := h.logs.Events()
	require.Len(t, events, 1)
	assert.Nil(t, events[0].StudentID)
	assert.Equal(t, string(domain.RecognitionNoFace), events[0].Outcome)
}

func TestWorkflow_EnrollWithoutPhotoIsNeverRecognized(t *testing.T) {
	h := newHarness(t)
	img := photo(t, 1)

	result := h.enroll(t, "20210001", "0100001", nil)
	assert.Equal(t, FaceNoImage, result.FaceStatus)

	candidates, err := h.students.ListCandidates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, candidates)

	out, err := h.recognition.Recognize(context.Background(), img, "")
	require.NoError(t, err)
	assert.Equal(t, domain.RecognitionNoMatch, out.Status)
}

func TestWorkflow_DuplicateEnrollmentKeepsOriginal(t *testing.T) {
	h := newHarness(t)
	original := photo(t, 1)
	h.enroll(t, "20210001", "0100001", original)

	_, err := h.enrollment.Enroll(context.Background(), EnrollStudentInput{
		StudentID: "20210001", IndexNumber: "0100002",
		FirstName: "Someone", LastName: "Else", Email: "else@example.com",
		Image: photo(t, 2),
	})
	assert.ErrorIs(t, err, domain.ErrStudentExists)

	stored, err := h.enrollment.Get(context.Background(), "20210001")
	require.NoError(t, err)
	assert.Equal(t, "0100001", stored.IndexNumber)
	assert.Equal(t, domain.Embedding(mock.Embedding(original)), stored.Embedding)
}

func TestWorkflow_MultiFaceRecognitionIsAmbiguous(t *testing.T) {
	h := newHarness(t)
	img := photo(t, 1)
	h.enroll(t, "20210001", "0100001", img)

	group := photo(t, 3)
	h.provider.SetFaces(group, mock.Embedding(img), mock.Embedding(photo(t, 4)))

	out, err := h.recognition.Recognize(context.Background(), group, "")
	require.NoError(t, err)
	assert.Equal(t, domain.RecognitionAmbiguous, out.Status)
	assert.Nil(t, out.StudentID)
}

func TestWorkflow_RoomRecognition(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	img := photo(t, 1)
	h.enroll(t, "20210001", "0500005", img)

	_, err := h.rooms.Create(ctx, CreateRoomInput{RoomCode: "ROOM-5", RoomName: "Room 5", IndexStart: "0500000", IndexEnd: "0500005"})
	require.NoError(t, err)
	_, err = h.rooms.Create(ctx, CreateRoomInput{RoomCode: "ROOM-9", RoomName: "Room 9", IndexStart: "0900000", IndexEnd: "0999999"})
	require.NoError(t, err)

	valid, err := h.recognition.RecognizeInRoom(ctx, img, "ROOM-5", "door")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusValid, valid.Status)
	assert.Equal(t, domain.SignalConfirmation, valid.Signal)

	invalid, err := h.recognition.RecognizeInRoom(ctx, img, "ROOM-9", "door")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusInvalid, invalid.Status)
	assert.Equal(t, domain.SignalWarning, invalid.Signal)
	assert.Contains(t, invalid.Message, "ROOM-5")

	assert.Len(t, h.logs.Events(), 2)
}

func TestWorkflow_FiftyIdentitiesIgnoreInsertionOrder(t *testing.T) {
	const target = 37

	embeddings := make([][]float64, 50)
	for i := range embeddings {
		e := make([]float64, domain.EmbeddingDimension)
		e[i] = 1
		embeddings[i] = e
	}
	query := append([]float64(nil), embeddings[target]...)
	query[100] = 0.05

	for _, seed := range []int64{1, 2, 3} {
		t.Run(fmt.Sprintf("order %d", seed), func(t *testing.T) {
			h := newHarness(t)

			order := rand.New(rand.NewSource(seed)).Perm(len(embeddings))
			for _, i := range order {
				img := photo(t, int64(1000+i))
				h.provider.SetFaces(img, embeddings[i])
				result, err := h.enrollment.Enroll(context.Background(), EnrollStudentInput{
					StudentID:   fmt.Sprintf("%08d", 20210000+i),
					IndexNumber: fmt.Sprintf("%07d", 100000+i),
					FirstName:   "Student", LastName: fmt.Sprint(i), Email: "s@example.com",
					Image: img,
				})
				require.NoError(t, err)
				require.Equal(t, FaceEnrolled, result.FaceStatus)
			}

			probe := photo(t, 99)
			h.provider.SetFaces(probe, query)

			out, err := h.recognition.Recognize(context.Background(), probe, "")
			require.NoError(t, err)
			require.Equal(t, domain.RecognitionRecognized, out.Status)
			assert.Equal(t, fmt.Sprintf("%08d", 20210000+target), *out.StudentID)
			assert.InDelta(t, 0.05, *out.Distance, 1e-9)
		})
	}
}
