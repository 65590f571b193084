package params

import (
	"fmt"

	"github.com/joho/godotenv"
)

// ReadFileFunc reads a whole file. Satisfied by os.ReadFile and by
// filesystem.Provider.ReadFile.
type ReadFileFunc func(path string) ([]byte, error)

// ParseEnvFile parses params file content in .env format using godotenv:
// comments, quoted values, "export" prefixes and ${VAR} expansion all behave
// as they do for godotenv.Load.
func ParseEnvFile(content []byte) (map[string]string, error) {
	values, err := godotenv.UnmarshalBytes(content)
	if err != nil {
		return nil, err
	}
	return values, nil
}

// LoadFiles reads and merges params files in order; later files win.
func LoadFiles(read ReadFileFunc, paths []string) (map[string]string, error) {
	layers := make([]map[string]string, 0, len(paths))
	for _, path := range paths {
		data, err := read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read params file %s: %w", path, err)
		}
		values, err := ParseEnvFile(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse params file %s: %w", path, err)
		}
		layers = append(layers, values)
	}
	return Merge(layers...), nil
}
