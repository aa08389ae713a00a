package snippet

import (
	"errors"
	"testing"

	"github.com/starford/docsauthor/internal/apperr"
	"github.com/starford/docsauthor/internal/testutil"
)

func TestParsePosition(t *testing.T) {
	pos, err := ParsePosition("3:7")
	if err != nil || pos != (Position{Line: 3, Column: 7}) {
		t.Errorf("pos = %+v, err = %v", pos, err)
	}
	for _, bad := range []string{"3", "a:1", "1:b", ""} {
		if _, err := ParsePosition(bad); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("ParsePosition(%q) err = %v", bad, err)
		}
	}
}

func TestInsert(t *testing.T) {
	cases := []struct {
		pos  Position
		want string
	}{
		{Position{1, 1}, "Xab\ncd"},
		{Position{1, 3}, "abX\ncd"},
		{Position{2, 2}, "ab\ncXd"},
	}
	for _, c := range cases {
		got, err := Insert("ab\ncd", c.pos, "X")
		if err != nil || got != c.want {
			t.Errorf("Insert at %+v = %q, %v; want %q", c.pos, got, err, c.want)
		}
	}
	for _, bad := range []Position{{0, 1}, {3, 1}, {1, 4}, {1, 0}} {
		if _, err := Insert("ab\ncd", bad, "X"); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("Insert at %+v err = %v", bad, err)
		}
	}
}

func TestInsert_CountsCharacters(t *testing.T) {
	got, err := Insert("héllo", Position{1, 3}, "X")
	if err != nil || got != "héXllo" {
		t.Errorf("got %q, %v", got, err)
	}
}

func TestInsertAt(t *testing.T) {
	_, repo := testutil.TestRepo(t, "repo")
	_ = repo.Write("a.md", []byte("# Title\n\nSee .\n"))

	if err := InsertAt(repo, "a.md", Position{3, 5}, "[x](b.md)"); err != nil {
		t.Fatalf("InsertAt: %v", err)
	}
	data, _ := repo.Read("a.md")
	if string(data) != "# Title\n\nSee [x](b.md).\n" {
		t.Errorf("content = %q", data)
	}

	if err := InsertAt(repo, "unsaved.md", Position{1, 1}, "x"); !errors.Is(err, apperr.ErrNotSaved) {
		t.Errorf("err = %v, want ErrNotSaved", err)
	}
}
