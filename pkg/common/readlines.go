package common

import (
	"bufio"
	"os"
)

// maxLineSize trace records carry whole prompts and answers, which don't fit bufio's default 64 KiB.
const maxLineSize = 4 << 20

// ReadAllLines reads all lines from the given path on disk.
func ReadAllLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()
	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
