package bootstrap

import "testing"

func TestFallbackSpacesParsing(t *testing.T) {
	spaces := fallbackSpaces([]string{
		"space-a:posts-a",
		" space-b:posts-b ",
		"space-without-channel",
		":orphan-channel",
		"",
	})
	if len(spaces) != 2 {
		t.Fatalf("expected 2 destinations, got %d: %+v", len(spaces), spaces)
	}
	if spaces[0].SpaceID != "space-a" || spaces[0].PostChannelID != "posts-a" {
		t.Fatalf("first destination parsed wrong: %+v", spaces[0])
	}
	if spaces[1].SpaceID != "space-b" || spaces[1].PostChannelID != "posts-b" {
		t.Fatalf("second destination parsed wrong: %+v", spaces[1])
	}
	for _, space := range spaces {
		if !space.Postable() {
			t.Fatalf("parsed destination is not postable: %+v", space)
		}
	}
}

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"":      ":8080",
		"9090":  ":9090",
		":7070": ":7070",
	}
	for in, want := range cases {
		if got := normalizeAddr(in); got != want {
			t.Fatalf("normalizeAddr(%q) = %q, want %q", in, got, want)
		}
	}
}
