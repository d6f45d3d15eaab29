package misc

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// ReadFile returns the contents of fileName
func ReadFile(fileName string) ([]byte, error) {
	if fileName == "" {
		return nil, errors.New("no filename supplied")
	}

	file, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", fileName)
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", fileName)
	}
	return fileBytes, nil
}

// WriteFile creates or truncates fileName and writes contents to it
func WriteFile(fileName string, contents []byte) (int, error) {
	if fileName == "" {
		return 0, errors.New("no filename supplied")
	}

	file, err := os.Create(fileName)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to create file %s", fileName)
	}

	bytesWritten, err := file.Write(contents)
	if err != nil {
		file.Close()
		return bytesWritten, errors.Wrapf(err, "unable to write file %s", fileName)
	}

	// A failed close can lose buffered data so it is reported
	err = file.Close()
	if err != nil {
		return bytesWritten, errors.Wrapf(err, "unable to close file %s", fileName)
	}

	return bytesWritten, nil
}

// MakeDirectory creates path, and any missing parents, if it does not exist yet
func MakeDirectory(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, os.ModePerm); err != nil {
			return errors.Wrapf(err, "unable to create folder %s", path)
		}
	}
	return nil
}
