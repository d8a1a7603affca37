package vectorindex

import "strings"

// ChunkText splits text into overlapping windows, grounded on the teacher's
// memory-core/internal.ChunkMarkdown: flush on overflow, then carry the
// trailing overlapChars of the previous window into the next one.
func ChunkText(text string, cfg ChunkingConfig) []string {
	maxChars := cfg.MaxChars
	if maxChars < 32 {
		maxChars = 32
	}
	overlapChars := cfg.OverlapChars
	if overlapChars < 0 {
		overlapChars = 0
	}

	paragraphs := strings.Split(text, "\n")
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder
	currentChars := 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, current.String())
	}

	carryOverlap := func() {
		if overlapChars <= 0 {
			current.Reset()
			currentChars = 0
			return
		}
		prev := current.String()
		if len(prev) <= overlapChars {
			current.Reset()
			current.WriteString(prev)
			currentChars = len(prev)
			return
		}
		tail := prev[len(prev)-overlapChars:]
		current.Reset()
		current.WriteString(tail)
		currentChars = len(tail)
	}

	for _, para := range paragraphs {
		var segments []string
		if len(para) == 0 {
			segments = []string{""}
		} else {
			for start := 0; start < len(para); start += maxChars {
				end := start + maxChars
				if end > len(para) {
					end = len(para)
				}
				segments = append(segments, para[start:end])
			}
		}

		for _, segment := range segments {
			size := len(segment) + 1
			if currentChars+size > maxChars && current.Len() > 0 {
				flush()
				carryOverlap()
			}
			if current.Len() > 0 {
				current.WriteByte('\n')
			}
			current.WriteString(segment)
			currentChars += size
		}
	}

	flush()
	return chunks
}
