package upload

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/navaex/portal/internal/logger"
)

const maxReceiptSize = 5 << 20 // 5 MiB

var allowedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

// Dir returns the receipt storage directory, creating it if needed.
func Dir() (string, error) {
	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "./uploads"
	}
	dir = filepath.Join(dir, "receipts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// Receipt is POST /api/uploads/receipt: stores a bank transfer receipt
// and returns the URL the client passes back on card submissions.
func Receipt(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	if fh.Size > maxReceiptSize {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file too large (max 5MB)"})
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExts[ext] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "only jpg, png and pdf receipts are accepted"})
	}

	dir, err := Dir()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "storage unavailable"})
	}

	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read file"})
	}
	defer src.Close()

	name := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store file"})
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store file"})
	}

	base := strings.TrimRight(os.Getenv("APP_URL"), "/")
	if base == "" {
		base = "http://localhost:3000"
	}
	url := base + "/uploads/receipts/" + name

	logger.L.Info("receipt stored", zap.String("user_id", userID), zap.String("file", name))
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"url": url}})
}
