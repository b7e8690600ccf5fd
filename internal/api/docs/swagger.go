package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// StudentResponse is an enrolled student
type StudentResponse struct {
	ID          string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	StudentID   string `json:"student_id" example:"20240001"`
	IndexNumber string `json:"index_number" example:"0100001"`
	FirstName   string `json:"first_name" example:"Ama"`
	MiddleName  string `json:"middle_name,omitempty" example:"Serwaa"`
	LastName    string `json:"last_name" example:"Mensah"`
	Email       string `json:"email" example:"ama@example.edu"`
	Program     string `json:"program,omitempty" example:"BSc Computer Science"`
	Level       string `json:"level,omitempty" example:"300"`
	HasFace     bool   `json:"has_face" example:"true"`
	CreatedAt   string `json:"created_at" example:"2024-01-01T00:00:00Z"`
	UpdatedAt   string `json:"updated_at" example:"2024-01-01T00:00:00Z"`
}

// EnrollResponse is the created student and what happened to the photo
type EnrollResponse struct {
	Student    StudentResponse `json:"student"`
	FaceStatus string          `json:"face_status" example:"enrolled"`
	FaceReason string          `json:"face_reason,omitempty" example:""`
}

// RecognitionResponse is the tagged outcome of one recognition attempt
type RecognitionResponse struct {
	ID          string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status      string  `json:"status" example:"recognized"`
	StudentID   string  `json:"student_id,omitempty" example:"20240001"`
	IndexNumber string  `json:"index_number,omitempty" example:"0100001"`
	StudentName string  `json:"student_name,omitempty" example:"Ama Mensah"`
	Distance    float64 `json:"distance,omitempty" example:"0.31"`
	Confidence  float64 `json:"confidence,omitempty" example:"0.48"`
	Reason      string  `json:"reason" example:"student recognized"`
	Source      string  `json:"source,omitempty" example:"gate-1"`
	LatencyMs   int64   `json:"latency_ms" example:"85"`
	Timestamp   string  `json:"timestamp" example:"2024-01-01T08:00:00Z"`
}

// RoomRecognitionResponse is a recognition checked against a room range
type RoomRecognitionResponse struct {
	Status           string              `json:"status" example:"valid"`
	Signal           string              `json:"signal" example:"confirmation"`
	Recognition      RecognitionResponse `json:"recognition"`
	RoomCode         string              `json:"room_code" example:"HALL-A"`
	RoomName         string              `json:"room_name,omitempty" example:"Great Hall A"`
	AssignedRoomCode string              `json:"assigned_room_code,omitempty" example:"HALL-A"`
	Message          string              `json:"message" example:"Ama Mensah is assigned to Great Hall A (HALL-A)"`
	Timestamp        string              `json:"timestamp" example:"2024-01-01T08:00:00Z"`
}

// RoomRequest is the body of room create and update
type RoomRequest struct {
	RoomCode    string `json:"room_code" example:"HALL-A"`
	RoomName    string `json:"room_name" example:"Great Hall A"`
	IndexStart  string `json:"index_start" example:"0100000"`
	IndexEnd    string `json:"index_end" example:"0199999"`
	Capacity    int    `json:"capacity,omitempty" example:"120"`
	Description string `json:"description,omitempty" example:"Ground floor"`
}

// RoomResponse is an exam room with its assigned student count
type RoomResponse struct {
	ID               string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	RoomCode         string `json:"room_code" example:"HALL-A"`
	RoomName         string `json:"room_name" example:"Great Hall A"`
	IndexStart       string `json:"index_start" example:"0100000"`
	IndexEnd         string `json:"index_end" example:"0199999"`
	Capacity         int    `json:"capacity,omitempty" example:"120"`
	Description      string `json:"description,omitempty" example:"Ground floor"`
	AssignedStudents int    `json:"assigned_students" example:"87"`
	CreatedAt        string `json:"created_at" example:"2024-01-01T00:00:00Z"`
	UpdatedAt        string `json:"updated_at" example:"2024-01-01T00:00:00Z"`
}

// RoomListResponse lists every exam room
type RoomListResponse struct {
	Rooms []RoomResponse `json:"rooms"`
	Total int            `json:"total" example:"4"`
}

// RangePreviewResponse shows who a candidate range would cover
type RangePreviewResponse struct {
	IndexStart string            `json:"index_start" example:"0100000"`
	IndexEnd   string            `json:"index_end" example:"0199999"`
	Count      int               `json:"count" example:"87"`
	Students   []StudentResponse `json:"students"`
}

// StudentListResponse is one page of the student register
type StudentListResponse struct {
	Students []StudentResponse `json:"students"`
	Total    int               `json:"total" example:"412"`
	Offset   int               `json:"offset" example:"0"`
	Limit    int               `json:"limit" example:"100"`
}

// RoomRosterResponse lists every student assigned to a room
type RoomRosterResponse struct {
	Room     RoomRequest       `json:"room"`
	Count    int               `json:"count" example:"87"`
	Students []StudentResponse `json:"students"`
}

// ValidateResponse answers whether an index number belongs in a room
type ValidateResponse struct {
	Valid       bool   `json:"valid" example:"false"`
	RoomCode    string `json:"room_code" example:"HALL-A"`
	IndexNumber string `json:"index_number" example:"0200001"`
	Message     string `json:"message" example:"index number 0200001 is not assigned to HALL-A, go to Hall B (HALL-B)"`
}

// StatsResponse summarises the registry and recent recognitions
type StatsResponse struct {
	TotalStudents      int64            `json:"total_students" example:"412"`
	StudentsWithFace   int64            `json:"students_with_face" example:"398"`
	TotalRecognitions  int64            `json:"total_recognitions" example:"5230"`
	RecentRecognitions int64            `json:"recent_recognitions" example:"610"`
	ByOutcome          map[string]int64 `json:"by_outcome"`
	Since              string           `json:"since" example:"2024-01-01T00:00:00Z"`
}

// RecognitionLogResponse is one stored recognition attempt
type RecognitionLogResponse struct {
	ID          string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Timestamp   string  `json:"timestamp" example:"2024-01-01T08:00:00Z"`
	Kind        string  `json:"kind" example:"room_recognition"`
	Outcome     string  `json:"outcome" example:"recognized"`
	Reason      string  `json:"reason,omitempty" example:"student recognized"`
	StudentID   string  `json:"student_id,omitempty" example:"20240001"`
	IndexNumber string  `json:"index_number,omitempty" example:"0100001"`
	Confidence  float64 `json:"confidence,omitempty" example:"0.48"`
	Distance    float64 `json:"distance,omitempty" example:"0.31"`
	RoomCode    string  `json:"room_code,omitempty" example:"HALL-A"`
	RoomStatus  string  `json:"room_status,omitempty" example:"valid"`
	Signal      string  `json:"signal,omitempty" example:"confirmation"`
	Source      string  `json:"source,omitempty" example:"gate-1"`
	Message     string  `json:"message,omitempty" example:"Ama Mensah is assigned to Great Hall A (HALL-A)"`
	LatencyMs   int64   `json:"latency_ms" example:"85"`
}

// LogListResponse lists recognition logs, newest first
type LogListResponse struct {
	Logs  []RecognitionLogResponse `json:"logs"`
	Total int                      `json:"total" example:"1"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
	Details string `json:"details,omitempty" example:"index_number must be exactly 7 digits"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

var (
	errUnauthorized = response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized")
	errValidation   = response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity")
	errInternal     = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
	errUnavailable  = response.New(ErrorResponse{Code: "RECOGNITION_UNAVAILABLE", Message: "System temporarily unavailable, please try again later"}, "503", "Service Unavailable")
	errRateLimited  = response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests")
	errStudent404   = response.New(ErrorResponse{Code: "STUDENT_NOT_FOUND", Message: "Student not found"}, "404", "Not Found")
	errRoom404      = response.New(ErrorResponse{Code: "ROOM_NOT_FOUND", Message: "Exam room not found"}, "404", "Not Found")
	errImage        = response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity")
	errImageLarge   = response.New(ErrorResponse{Code: "IMAGE_TOO_LARGE", Message: "Image exceeds the maximum allowed size"}, "413", "Payload Too Large")

	apiKeyAuth = endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}})

	studentIDParam = parameter.StrParam("student_id", parameter.Path, parameter.WithDescription("8-digit student identifier"))
	roomIDParam    = parameter.StrParam("id", parameter.Path, parameter.WithDescription("Exam room UUID"))
)

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "examgate API",
		Version:     "v1.0.0",
		Description: "Student face enrollment and recognition with exam room index range checks",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// Students

		endpoint.New(
			endpoint.POST,
			"/students",
			endpoint.WithTags("Students"),
			endpoint.WithSummary("Enroll a student"),
			endpoint.WithDescription("Multipart form with student_id, index_number, first_name, middle_name, last_name, email, program, level and an optional image. A photo without a usable face still creates the student, face_status says why no embedding was stored."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollResponse{}, "201", "Student enrolled"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "STUDENT_ALREADY_REGISTERED", Message: "A student with this student_id is already registered"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "INDEX_NUMBER_ALREADY_REGISTERED", Message: "A student with this index_number is already registered"}, "409", "Conflict"),
				errImageLarge,
				errValidation,
				errInternal,
			}),
			apiKeyAuth,
		),

		endpoint.New(
			endpoint.GET,
			"/students",
			endpoint.WithTags("Students"),
			endpoint.WithSummary("List students"),
			endpoint.WithDescription("Students ordered by index number, with and without an enrolled face."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("offset", parameter.Query, parameter.WithDescription("Students to skip (default: 0)")),
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Page size (default: 100, max: 1000)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StudentListResponse{}, "200", "Students listed"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errValidation, errInternal}),
			apiKeyAuth,
		),

		endpoint.New(
			endpoint.GET,
			"/students/{student_id}",
			endpoint.WithTags("Students"),
			endpoint.WithSummary("Get a student"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(studentIDParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StudentResponse{}, "200", "Student retrieved"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errStudent404, errValidation, errInternal}),
			apiKeyAuth,
		),

		endpoint.New(
			endpoint.PUT,
			"/students/{student_id}/face",
			endpoint.WithTags("Students"),
			endpoint.WithSummary("Replace a student's face"),
			endpoint.WithDescription("Multipart form with a required image. The photo must contain exactly one face."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(studentIDParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StudentResponse{}, "200", "Face replaced"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				errStudent404,
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "Could not find a face in the photo"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "MULTIPLE_FACES", Message: "Multiple faces detected, please provide image with single face"}, "422", "Unprocessable Entity"),
				errImage,
				response.New(ErrorResponse{Code: "EXTRACTION_TIMEOUT", Message: "Face detection timed out, please try again"}, "503", "Service Unavailable"),
				errInternal,
			}),
			apiKeyAuth,
		),

		endpoint.New(
			endpoint.DELETE,
			"/students/{student_id}/face",
			endpoint.WithTags("Students"),
			endpoint.WithSummary("Remove a student's face"),
			endpoint.WithDescription("Keeps the student record. The student can no longer be recognized."),
			endpoint.WithParams(studentIDParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Face removed"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errStudent404, errInternal}),
			apiKeyAuth,
		),

		endpoint.New(
			endpoint.DELETE,
			"/students/{student_id}",
			endpoint.WithTags("Students"),
			endpoint.WithSummary("Delete a student"),
			endpoint.WithParams(studentIDParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Student deleted"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errStudent404, errInternal}),
			apiKeyAuth,
		),

		// Recognition

		endpoint.New(
			endpoint.POST,
			"/recognize",
			endpoint.WithTags("Recognition"),
			endpoint.WithSummary("Recognize a student"),
			endpoint.WithDescription("Multipart form with a required image and an optional source label. Rejections (no_face, no_match, ambiguous_multi_face, timeout, no_valid_embeddings) are 200 responses with the matching status and reason."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RecognitionResponse{}, "200", "Recognition completed"),
			}),
			endpoint.WithErrors([]response.Response{errImageLarge, errImage, errValidation, errRateLimited, errUnavailable}),
		),

		endpoint.New(
			endpoint.POST,
			"/exam-rooms/{room_code}/recognize",
			endpoint.WithTags("Recognition"),
			endpoint.WithSummary("Recognize a student at an exam room door"),
			endpoint.WithDescription("Recognizes the student and checks their index number against the room range. Status valid plays a confirmation signal, invalid a warning, error an error tone."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("room_code", parameter.Path, parameter.WithDescription("Exam room code")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RoomRecognitionResponse{}, "200", "Room recognition completed"),
			}),
			endpoint.WithErrors([]response.Response{errRoom404, errImageLarge, errImage, errValidation, errRateLimited, errUnavailable}),
		),

		// Exam rooms

		endpoint.New(
			endpoint.POST,
			"/exam-rooms",
			endpoint.WithTags("Exam rooms"),
			endpoint.WithSummary("Create an exam room"),
			endpoint.WithDescription("JSON body shaped like RoomRequest. Ranges are inclusive 7-digit index numbers and must not overlap another room."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RoomResponse{}, "201", "Exam room created"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "ROOM_ALREADY_EXISTS", Message: "An exam room with this room_code already exists"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "ROOM_RANGE_OVERLAP", Message: "Index range overlaps with an existing room assignment"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "INVALID_INDEX_RANGE", Message: "Start index must be less than or equal to end index"}, "422", "Unprocessable Entity"),
				errValidation,
				errInternal,
			}),
			apiKeyAuth,
		),

		endpoint.New(
			endpoint.GET,
			"/exam-rooms",
			endpoint.WithTags("Exam rooms"),
			endpoint.WithSummary("List exam rooms"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RoomListResponse{}, "200", "Exam rooms listed"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errInternal}),
			apiKeyAuth,
		),

		endpoint.New(
			endpoint.GET,
			"/exam-rooms/preview",
			endpoint.WithTags("Exam rooms"),
			endpoint.WithSummary("Preview a range"),
			endpoint.WithDescription("Counts the enrolled students in the range and lists the first ten."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("index_start", parameter.Query, parameter.WithDescription("First index number of the range")),
				parameter.StrParam("index_end", parameter.Query, parameter.WithDescription("Last index number of the range")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RangePreviewResponse{}, "200", "Range preview"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errValidation, errInternal}),
			apiKeyAuth,
		),

		endpoint.New(
			endpoint.GET,
			"/exam-rooms/validate/{room_code}/{index_number}",
			endpoint.WithTags("Exam rooms"),
			endpoint.WithSummary("Check an index number against a room"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("room_code", parameter.Path, parameter.WithDescription("Exam room code")),
				parameter.StrParam("index_number", parameter.Path, parameter.WithDescription("7-digit index number")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ValidateResponse{}, "200", "Assignment checked"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errRoom404, errValidation, errInternal}),
			apiKeyAuth,
		),

		endpoint.New(
			endpoint.GET,
			"/exam-rooms/{id}",
			endpoint.WithTags("Exam rooms"),
			endpoint.WithSummary("Get an exam room"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(roomIDParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RoomResponse{}, "200", "Exam room retrieved"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errRoom404, errValidation, errInternal}),
			apiKeyAuth,
		),

		endpoint.New(
			endpoint.GET,
			"/exam-rooms/{id}/students",
			endpoint.WithTags("Exam rooms"),
			endpoint.WithSummary("List the students assigned to a room"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(roomIDParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RoomRosterResponse{}, "200", "Room roster"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errRoom404, errValidation, errInternal}),
			apiKeyAuth,
		),

		endpoint.New(
			endpoint.PUT,
			"/exam-rooms/{id}",
			endpoint.WithTags("Exam rooms"),
			endpoint.WithSummary("Update an exam room"),
			endpoint.WithDescription("JSON body shaped like RoomRequest. Only the fields present are changed."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(roomIDParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RoomResponse{}, "200", "Exam room updated"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				errRoom404,
				response.New(ErrorResponse{Code: "ROOM_RANGE_OVERLAP", Message: "Index range overlaps with an existing room assignment"}, "409", "Conflict"),
				errValidation,
				errInternal,
			}),
			apiKeyAuth,
		),

		endpoint.New(
			endpoint.DELETE,
			"/exam-rooms/{id}",
			endpoint.WithTags("Exam rooms"),
			endpoint.WithSummary("Delete an exam room"),
			endpoint.WithParams(roomIDParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Exam room deleted"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errRoom404, errInternal}),
			apiKeyAuth,
		),

		// Admin reporting

		endpoint.New(
			endpoint.GET,
			"/admin/stats",
			endpoint.WithTags("Admin"),
			endpoint.WithSummary("Registry and recognition statistics"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("days", parameter.Query, parameter.WithDescription("Window for recent activity in days (default: 7, max: 365)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StatsResponse{}, "200", "Statistics"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errValidation, errUnavailable}),
			apiKeyAuth,
		),

		endpoint.New(
			endpoint.GET,
			"/admin/recognition-logs",
			endpoint.WithTags("Admin"),
			endpoint.WithSummary("List recognition logs"),
			endpoint.WithDescription("Dates accept RFC 3339 or YYYY-MM-DD. A bare end_date covers the whole day."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("student_id", parameter.Query, parameter.WithDescription("8-digit student identifier")),
				parameter.StrParam("room_code", parameter.Query, parameter.WithDescription("Exam room code")),
				parameter.StrParam("outcome", parameter.Query, parameter.WithDescription("Recognition status, e.g. recognized or no_match")),
				parameter.StrParam("start_date", parameter.Query, parameter.WithDescription("Earliest log time")),
				parameter.StrParam("end_date", parameter.Query, parameter.WithDescription("Latest log time")),
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum number of logs (default: 100, max: 1000)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(LogListResponse{}, "200", "Recognition logs"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errValidation, errUnavailable}),
			apiKeyAuth,
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
