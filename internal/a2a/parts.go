package a2a

import (
	"slices"
	"strings"
)

// MessageParts is the classified view of a message produced by ExtractParts.
type MessageParts struct {
	JoinedText string
	TextParts  []string
	FileParts  []*FileContent
	DataParts  []map[string]any
}

// ExtractParts classifies the parts of a message into text, file, and data
// segments, preserving original order. When mimeFilter is non-empty, only
// files whose MIME type appears in the filter are kept. File parts that
// carry neither inline bytes nor a URI are unusable and dropped. Pure
// function: no I/O, the message is not modified.
func ExtractParts(msg Message, mimeFilter []string) MessageParts {
	var out MessageParts
	for _, part := range msg.Parts {
		switch part.Kind {
		case PartKindText:
			out.TextParts = append(out.TextParts, part.Text)
		case PartKindFile:
			file := part.File
			if file == nil || (file.Bytes == "" && file.URI == "") {
				continue
			}
			if len(mimeFilter) > 0 && !slices.Contains(mimeFilter, file.MimeType) {
				continue
			}
			out.FileParts = append(out.FileParts, file)
		case PartKindData:
			if part.Data != nil {
				out.DataParts = append(out.DataParts, part.Data)
			}
		}
	}
	out.JoinedText = strings.Join(out.TextParts, "\n")
	return out
}
