package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

// sniffSize - сколько байт читается для определения типа по сигнатуре.
const sniffSize = 512

// Разрешённые типы результатов работы.
var allowedMIME = map[string]bool{
	"image/jpeg":                   true,
	"image/png":                    true,
	"image/gif":                    true,
	"image/webp":                   true,
	"application/pdf":              true,
	"application/zip":              true,
	"application/x-7z-compressed":  true,
	"application/vnd.rar":          true,
	"application/x-rar-compressed": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"video/mp4":  true,
	"audio/mpeg": true,
}

// StoredFile - сохранённый файл результата.
type StoredFile struct {
	Path string
	Size int64
	MIME string
}

// LivrableStorage хранит файлы результатов работы в каталоге заказа.
type LivrableStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewLivrableStorage создаёт файловое хранилище.
func NewLivrableStorage(rootPath string, maxUploadMB int64) (*LivrableStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &LivrableStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Root возвращает корневой каталог хранилища.
func (s *LivrableStorage) Root() string {
	return s.rootPath
}

// Save проверяет тип файла по сигнатуре и сохраняет его. Возвращает путь
// относительно корня хранилища. Недопустимый тип или размер - ошибка валидации.
func (s *LivrableStorage) Save(ctx context.Context, orderID uuid.UUID, originalName string, r io.Reader) (*StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	head := make([]byte, sniffSize)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("storage: не удалось прочитать файл: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, apperror.Validation("файл не может быть пустым")
	}

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return nil, apperror.Validation("не удалось определить тип файла")
	}
	if !allowedMIME[kind.MIME.Value] {
		return nil, apperror.Validation(fmt.Sprintf("неподдерживаемый тип файла (%s)", kind.MIME.Value))
	}

	safeName := sanitizeFilename(originalName)
	base := strings.TrimSuffix(safeName, filepath.Ext(safeName))
	fileName := fmt.Sprintf("%s_%d.%s", base, time.Now().UnixNano(), kind.Extension)

	orderDir := filepath.Join(s.rootPath, orderID.String())
	if err := os.MkdirAll(orderDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог заказа: %w", err)
	}

	targetPath := filepath.Join(orderDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limitedReader := io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limitedReader)
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return nil, apperror.Validation(fmt.Sprintf("размер файла превышает лимит %d байт", s.maxUploadBytes))
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return &StoredFile{
		Path: filepath.ToSlash(filepath.Join(orderID.String(), fileName)),
		Size: written,
		MIME: kind.MIME.Value,
	}, nil
}

// Delete удаляет файл из хранилища. Используется, если заказ не удалось сохранить.
func (s *LivrableStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.rootPath, filepath.FromSlash(relativePath))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// Resolve возвращает путь к сохранённому файлу на диске. Путь вне корня
// хранилища или отсутствующий файл - ошибка "не найдено".
func (s *LivrableStorage) Resolve(ctx context.Context, relativePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	root, err := filepath.Abs(s.rootPath)
	if err != nil {
		return "", fmt.Errorf("storage: некорректный корень хранилища: %w", err)
	}
	target := filepath.Join(root, filepath.FromSlash(relativePath))
	if rel, err := filepath.Rel(root, target); err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperror.New(apperror.ErrCodeNotFound, "файл не найден")
	}

	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		return "", apperror.New(apperror.ErrCodeNotFound, "файл не найден")
	}
	return target, nil
}

// sanitizeFilename удаляет потенциально опасные символы.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "")
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." {
		name = "livrable"
	}
	return name
}
