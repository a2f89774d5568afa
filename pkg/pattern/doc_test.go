package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Xuanwo/ast-grep/pkg/lang"
	"github.com/Xuanwo/ast-grep/pkg/types"
)

func TestDoc_PositionFor(t *testing.T) {
	doc := NewDoc([]byte("ab\ncd\n\nefg"), lang.Go)

	tests := []struct {
		name   string
		offset int
		want   types.Position
	}{
		{name: "start", offset: 0, want: types.Position{Line: 0, Column: 0}},
		{name: "newline byte belongs to its line", offset: 2, want: types.Position{Line: 0, Column: 2}},
		{name: "second line start", offset: 3, want: types.Position{Line: 1, Column: 0}},
		{name: "empty line", offset: 6, want: types.Position{Line: 2, Column: 0}},
		{name: "last line", offset: 7, want: types.Position{Line: 3, Column: 0}},
		{name: "end of content", offset: 10, want: types.Position{Line: 3, Column: 3}},
		{name: "past end clamps", offset: 42, want: types.Position{Line: 3, Column: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, doc.PositionFor(tt.offset))
		})
	}
}

func TestDoc_PositionFor_EmptyContent(t *testing.T) {
	doc := NewDoc(nil, lang.Go)

	assert.Equal(t, types.Position{Line: 0, Column: 0}, doc.PositionFor(0))
}

func TestDoc_RangeFor(t *testing.T) {
	doc := NewDoc([]byte("ab\ncd\n\nefg"), lang.Go)

	got := doc.RangeFor(types.ByteSpan{Start: 3, End: 8})

	assert.Equal(t, types.Range{
		ByteOffset: types.ByteSpan{Start: 3, End: 8},
		Start:      types.Position{Line: 1, Column: 0},
		End:        types.Position{Line: 3, Column: 1},
	}, got)
}

func TestNode_TextAndRange(t *testing.T) {
	doc := NewDoc([]byte("alpha\nbeta\n"), lang.Go)
	n := Node{doc: doc, span: types.ByteSpan{Start: 6, End: 10}}

	assert.Equal(t, "beta", n.Text())
	assert.Equal(t, types.ByteSpan{Start: 6, End: 10}, n.Span())
	assert.Equal(t, types.Position{Line: 1, Column: 0}, n.Range().Start)
	assert.Equal(t, types.Position{Line: 1, Column: 4}, n.Range().End)
}
