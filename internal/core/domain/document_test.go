package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentID(t *testing.T) {
	assert.Equal(t, "trauma_000000", DocumentID("trauma", 0))
	assert.Equal(t, "trauma_000042", DocumentID("trauma", 42))
	assert.Equal(t, "trauma_1234567", DocumentID("trauma", 1234567))
}

func TestNewDocument(t *testing.T) {
	tests := []struct {
		name    string
		rec     RawRecord
		wantOK  bool
		wantDoc Document
	}{
		{
			name:    "trims whitespace",
			rec:     RawRecord{Title: "  Aortic dissection \n", Abstract: "\tAcute onset. "},
			wantOK:  true,
			wantDoc: Document{ID: "cardio_000003", Title: "Aortic dissection", Abstract: "Acute onset."},
		},
		{
			name:    "title only",
			rec:     RawRecord{Title: "Appendicitis"},
			wantOK:  true,
			wantDoc: Document{ID: "cardio_000003", Title: "Appendicitis"},
		},
		{
			name:    "abstract only",
			rec:     RawRecord{Abstract: "Some findings."},
			wantOK:  true,
			wantDoc: Document{ID: "cardio_000003", Abstract: "Some findings."},
		},
		{
			name:   "both empty is dropped",
			rec:    RawRecord{Topic: "cardio", Title: "   ", Abstract: "\n"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, ok := NewDocument("cardio", 3, tt.rec)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantDoc, doc)
			}
		})
	}
}

func TestDocument_EmbeddingText(t *testing.T) {
	doc := Document{Title: "Title", Abstract: "abcdefghij"}

	assert.Equal(t, "Title\n\nabcde", doc.EmbeddingText(5))
	assert.Equal(t, "Title\n\nabcdefghij", doc.EmbeddingText(0))
	assert.Equal(t, "Title\n\nabcdefghij", doc.EmbeddingText(100))
}

func TestDocument_EmbeddingText_CountsCharactersNotBytes(t *testing.T) {
	doc := Document{Title: "T", Abstract: strings.Repeat("é", 10)}

	text := doc.EmbeddingText(4)

	assert.Equal(t, "T\n\néééé", text)
}

func TestDocument_EmbeddingText_MissingTitle(t *testing.T) {
	doc := Document{Abstract: "only abstract"}
	assert.Equal(t, "only abstract", doc.EmbeddingText(800))
}

func TestTopicName(t *testing.T) {
	assert.Equal(t, "cardiovascular_emergencies", TopicName("/data/corpus/cardiovascular_emergencies.json"))
	assert.Equal(t, "notes", TopicName("notes"))
	assert.Equal(t, "a.b", TopicName("dir/a.b.json"))
}
