package utils

import (
	"fmt"
	"io"
	"os"

	"github.com/maksimkurb/hostgate/src/internal/log"
)

// MaxTextFileSize caps ReadTextFile.
const MaxTextFileSize = 1 << 20

func CloseOrWarn(file io.Closer) {
	if err := file.Close(); err != nil {
		log.Warnf("Failed to close file: %v", err)
	}
}

// ReadTextFile reads a small text file such as a page template.
func ReadTextFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer CloseOrWarn(file)

	content, err := io.ReadAll(io.LimitReader(file, MaxTextFileSize+1))
	if err != nil {
		return "", err
	}
	if len(content) > MaxTextFileSize {
		return "", fmt.Errorf("%s is larger than %d bytes", path, MaxTextFileSize)
	}
	return string(content), nil
}
