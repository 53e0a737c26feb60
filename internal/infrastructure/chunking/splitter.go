package chunking

import (
	"errors"
	"strings"

	"ragbench/internal/core/domain"
)

// Splitter cuts page text into overlapping fixed-size rune windows.
// Same pages and same (ChunkSize, Overlap) always produce the same
// boundaries and order.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(pages []domain.Page) ([]domain.Chunk, error) {
	if len(pages) == 0 {
		return nil, domain.WrapError(domain.ErrEmptyInput, "split pages", errors.New("no pages supplied"))
	}

	var out []domain.Chunk
	for _, page := range pages {
		for _, text := range s.splitText(page.Text) {
			chunk := domain.Chunk{Text: text}
			if len(page.Metadata) > 0 {
				chunk.Metadata = make(map[string]string, len(page.Metadata))
				for k, v := range page.Metadata {
					chunk.Metadata[k] = v
				}
			}
			out = append(out, chunk)
		}
	}
	if len(out) == 0 {
		return nil, domain.WrapError(domain.ErrEmptyInput, "split pages", errors.New("pages yielded zero chunks"))
	}
	return out, nil
}

func (s *Splitter) splitText(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
