package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
)

const imageField = "image"

var errImageRequired = domain.ErrValidationFailed.WithError(errors.New("image is required"))

// readImage returns the bytes of the multipart "image" file after checking
// its size and content type. A missing file yields nil, nil unless required
// is set.
func readImage(c *fiber.Ctx, maxBytes int64, required bool) ([]byte, error) {
	file, err := c.FormFile(imageField)
	if err != nil {
		if required {
			return nil, errImageRequired
		}
		return nil, nil
	}

	if file.Size == 0 {
		return nil, domain.ErrInvalidImage.WithError(errors.New("image is empty"))
	}
	if maxBytes > 0 && file.Size > maxBytes {
		return nil, domain.ErrImageTooLarge
	}

	contentType := file.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") && contentType != fiber.MIMEOctetStream {
		return nil, domain.ErrInvalidImage.WithError(errors.New("unsupported content type " + contentType))
	}
	return readPart(file)
}

// uploadedImage returns the raw bytes of the required "image" file with no
// other checks. Recognition validates the bytes itself so that rejected
// uploads are audited.
func uploadedImage(c *fiber.Ctx) ([]byte, error) {
	file, err := c.FormFile(imageField)
	if err != nil {
		return nil, errImageRequired
	}
	return readPart(file)
}

func readPart(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	return data, nil
}
