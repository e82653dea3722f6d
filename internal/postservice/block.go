package postservice

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/google/uuid"
)

type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockHeading   BlockType = "heading"
	BlockImage     BlockType = "image"
	BlockCode      BlockType = "code"
	BlockQuote     BlockType = "quote"
	BlockList      BlockType = "list"

	DefaultHeadingLevel = 2
	WordsPerMinute      = 200
)

func (t BlockType) Valid() bool {
	switch t {
	case BlockParagraph, BlockHeading, BlockImage, BlockCode, BlockQuote, BlockList:
		return true
	}
	return false
}

// ContentBlock is one element of a post body. Content depends on Type: text for
// paragraph, quote, code and heading, an image URL or data URI for image, and a
// JSON array of strings for list.
type ContentBlock struct {
	ID       string         `json:"id"`
	Type     BlockType      `json:"type"`
	Content  string         `json:"content"`
	Metadata *BlockMetadata `json:"metadata,omitempty"`
}

type BlockMetadata struct {
	Alt      string `json:"alt,omitempty"`
	Language string `json:"language,omitempty"`
	Level    int    `json:"level,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Image    string `json:"image,omitempty"`
}

// ListItems decodes the items of a list block. Malformed content yields an
// empty slice.
func (b ContentBlock) ListItems() []string {
	var items []string
	if err := json.Unmarshal([]byte(b.Content), &items); err != nil || items == nil {
		return []string{}
	}
	return items
}

// HeadingLevel returns the heading level, falling back to 2 when unset or out of range.
func (b ContentBlock) HeadingLevel() int {
	if b.Metadata == nil || b.Metadata.Level < 1 || b.Metadata.Level > 6 {
		return DefaultHeadingLevel
	}
	return b.Metadata.Level
}

// ReadingTime estimates minutes to read the blocks at 200 words per minute,
// never less than one.
func ReadingTime(blocks []ContentBlock) int {
	contents := make([]string, len(blocks))
	for i, b := range blocks {
		contents[i] = b.Content
	}

	words := len(strings.Fields(strings.Join(contents, " ")))
	minutes := int(math.Ceil(float64(words) / WordsPerMinute))

	return max(1, minutes)
}

// normalizeBlocks fills missing ids, clamps heading levels, strips script
// from text blocks and drops unsafe image sources. The input slice is not
// modified.
func normalizeBlocks(blocks []ContentBlock) []ContentBlock {
	out := make([]ContentBlock, 0, len(blocks))

	for _, b := range blocks {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}

		if b.Metadata != nil {
			md := *b.Metadata
			md.Image = sanitizeImageSource(md.Image)
			b.Metadata = &md
		}

		switch b.Type {
		case BlockHeading:
			if b.Metadata == nil {
				b.Metadata = &BlockMetadata{}
			}
			b.Metadata.Level = b.HeadingLevel()
			b.Content = sanitizeText(b.Content)
		case BlockParagraph, BlockQuote:
			b.Content = sanitizeText(b.Content)
		case BlockList:
			b.Content = sanitizeList(b.Content)
		case BlockImage:
			b.Content = sanitizeImageSource(b.Content)
			if b.Metadata != nil {
				b.Metadata.Alt = sanitizeText(b.Metadata.Alt)
				b.Metadata.Caption = sanitizeText(b.Metadata.Caption)
			}
		}

		out = append(out, b)
	}

	return out
}
