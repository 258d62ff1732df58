package book

import (
	"testing"

	"bookhive/internal/apperr"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
)

func statusPtr(s Status) *Status { return &s }

func TestMatchKey(t *testing.T) {
	a := MatchKey("Dune", "Frank Herbert", "Sci-Fi")
	b := MatchKey("  DUNE ", "frank   herbert", "sci-fi")
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, MatchKey("Dune Messiah", "Frank Herbert", "Sci-Fi"))
	assert.Equal(t, MatchKey("Straße", "x", "y"), MatchKey("STRASSE", "X", "Y"))
}

func TestAddInput_Validate(t *testing.T) {
	valid := AddInput{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", Quantity: 2}
	assert.NoError(t, valid.Validate())

	bad := AddInput{Title: "", Author: "a", Genre: "g", Quantity: -1, Status: statusPtr("paper")}
	err := bad.Validate()
	assert.Error(t, err)

	got := map[string]bool{}
	for _, d := range detailsOf(err) {
		got[d] = true
	}
	assert.Equal(t, map[string]bool{"title": true, "quantity": true, "status": true}, got)
}

func TestNewBook_DefaultsOffline(t *testing.T) {
	b := AddInput{Title: "t", Author: "a", Genre: "g", Quantity: 1}.NewBook("id")
	assert.Equal(t, StatusOffline, b.Status)

	b = AddInput{Title: "t", Author: "a", Genre: "g", Status: statusPtr(StatusOnline)}.NewBook("id")
	assert.Equal(t, StatusOnline, b.Status)
	assert.True(t, b.Available())
}

func TestMergeAdd_SumsQuantity(t *testing.T) {
	existing := Book{ID: "1", Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", Quantity: 2, Status: StatusOffline}
	got := MergeAdd(existing, AddInput{Title: "dune", Author: "frank herbert", Genre: "sci-fi", Quantity: 3})

	want := existing
	want.Quantity = 5
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeAdd mismatch (-want +got):\n%s", diff)
	}
}

func TestApply(t *testing.T) {
	title := "Children of Dune"
	qty := 0
	b := Book{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", Quantity: 4, Status: StatusOffline}

	got := b.Apply(Patch{Title: &title, Quantity: &qty, Document: &Document{Name: "dune.pdf", Data: []byte("%PDF")}})
	assert.Equal(t, "Children of Dune", got.Title)
	assert.Equal(t, "Frank Herbert", got.Author)
	assert.Equal(t, 0, got.Quantity)
	assert.True(t, got.HasDocument)
	assert.Equal(t, "dune.pdf", got.DocumentName)
	assert.False(t, got.Available())
}

func TestMergeInto(t *testing.T) {
	target := Book{ID: "b", Title: "Dune", Quantity: 3, Status: StatusOffline}

	tests := []struct {
		name     string
		source   Book
		explicit *Status
		want     Book
	}{
		{
			name:   "sums quantity",
			source: Book{ID: "a", Quantity: 2, Status: StatusOffline},
			want:   Book{ID: "b", Title: "Dune", Quantity: 5, Status: StatusOffline},
		},
		{
			name:   "online source makes target online",
			source: Book{ID: "a", Quantity: 0, Status: StatusOnline},
			want:   Book{ID: "b", Title: "Dune", Quantity: 3, Status: StatusOnline},
		},
		{
			name:     "explicit status wins",
			source:   Book{ID: "a", Quantity: 1, Status: StatusOnline},
			explicit: statusPtr(StatusOffline),
			want:     Book{ID: "b", Title: "Dune", Quantity: 4, Status: StatusOffline},
		},
		{
			name:   "document carried over",
			source: Book{ID: "a", HasDocument: true, DocumentName: "a.pdf", Status: StatusOffline},
			want:   Book{ID: "b", Title: "Dune", Quantity: 3, Status: StatusOffline, HasDocument: true, DocumentName: "a.pdf"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeInto(target, tt.source, tt.explicit)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("MergeInto mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func detailsOf(err error) []string {
	var fields []string
	for _, d := range apperr.DetailsOf(err) {
		fields = append(fields, d.Field)
	}
	return fields
}
