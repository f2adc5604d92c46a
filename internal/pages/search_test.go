package pages

import (
	"testing"

	"github.com/alphadocs/alphadocs/internal/store"
)

func art(title, desc, category, date string, tags ...string) *store.Article {
	return &store.Article{
		Slug:        title,
		Path:        "a/" + title + ".md",
		Title:       title,
		Description: desc,
		Category:    category,
		Date:        date,
		Tags:        tags,
		Type:        store.TypeMarkdown,
	}
}

func titles(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Article.Title
	}
	return out
}

func TestQuerySubstringKeyword(t *testing.T) {
	articles := []*store.Article{
		art("Deploying Go", "release checklist", "infra", "2025-01-01"),
		art("Vim Tricks", "editor productivity", "tools", "2025-01-02"),
		art("Postgres Notes", "tuning the DEPLOY pipeline", "infra", "2025-01-03"),
	}

	got := Query{Keyword: "deploy"}.Run(articles)
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2 (title and description matches): %v", len(got), titles(got))
	}
	// Keyword also matches the category field.
	if got := (Query{Keyword: "tools"}).Run(articles); len(got) != 1 || got[0].Article.Title != "Vim Tricks" {
		t.Errorf("category keyword match = %v", titles(got))
	}
	// Empty keyword matches everything.
	if got := (Query{}).Run(articles); len(got) != 3 {
		t.Errorf("empty query returned %d results, want 3", len(got))
	}
}

func TestQueryTaxonomyFilters(t *testing.T) {
	articles := []*store.Article{
		art("A", "", "infra", "2025-01-01", "go", "ops"),
		art("B", "", "", "2025-01-02", "go"),
		art("C", "", "tools", "2025-01-03", "vim"),
	}

	// Articles without a category land in the fallback bucket.
	got := Query{Categories: []string{uncategorized}}.Run(articles)
	if len(got) != 1 || got[0].Article.Title != "B" {
		t.Errorf("uncategorized filter = %v", titles(got))
	}

	// Multi-select categories union their buckets.
	got = Query{Categories: []string{"infra", "tools"}}.Run(articles)
	if len(got) != 2 {
		t.Errorf("multi-category filter = %v", titles(got))
	}

	// Tag filter matches any selected tag.
	got = Query{Tags: []string{"ops", "vim"}}.Run(articles)
	if len(got) != 2 {
		t.Errorf("multi-tag filter = %v", titles(got))
	}

	// Tag and category filters combine conjunctively.
	got = Query{Tags: []string{"go"}, Categories: []string{"infra"}}.Run(articles)
	if len(got) != 1 || got[0].Article.Title != "A" {
		t.Errorf("combined filter = %v", titles(got))
	}
}

func TestQueryFuzzyStrongAndFallback(t *testing.T) {
	articles := []*store.Article{
		art("my kitten diary", "", "", "2025-01-01"),
		art("sitting", "", "", "2025-01-02"),
		art("unrelated doc", "", "", "2025-01-03"),
	}

	got := Query{Keyword: "kitten", Fuzzy: true}.Run(articles)
	if len(got) != 2 {
		t.Fatalf("got %v, want substring hit plus one topped-up fallback", titles(got))
	}
	if got[0].Article.Title != "my kitten diary" {
		t.Errorf("strongest match = %q", got[0].Article.Title)
	}
	if got[0].Similarity < strongSimilarity {
		t.Errorf("substring hit similarity = %v, want >= %v", got[0].Similarity, strongSimilarity)
	}
	if got[1].Similarity < fallbackSimilarity || got[1].Similarity >= strongSimilarity {
		t.Errorf("fallback similarity = %v, want in [%v, %v)", got[1].Similarity, fallbackSimilarity, strongSimilarity)
	}
}

func TestQueryFuzzyNoTopUpWhenEnoughStrong(t *testing.T) {
	articles := []*store.Article{
		art("deploy guide one", "", "", "2025-01-01"),
		art("deploy guide two", "", "", "2025-01-02"),
		art("deploy guide three", "", "", "2025-01-03"),
		art("sitting", "", "", "2025-01-04"), // would score ~0.57 for "kitten", irrelevant here
	}

	got := Query{Keyword: "deploy", Fuzzy: true}.Run(articles)
	if len(got) != 3 {
		t.Fatalf("got %v, want the three strong matches only", titles(got))
	}
	for _, r := range got {
		if r.Similarity < strongSimilarity {
			t.Errorf("%q similarity = %v, below strong threshold", r.Article.Title, r.Similarity)
		}
	}
}

func TestQuerySortModes(t *testing.T) {
	articles := []*store.Article{
		art("banana", "", "", "2025-01-02"),
		art("apple", "", "", "2025-01-03"),
		art("cherry", "", "", "2025-01-01"),
	}

	tests := []struct {
		sort string
		want []string
	}{
		{"", []string{"apple", "banana", "cherry"}}, // default date-desc
		{SortDateAsc, []string{"cherry", "banana", "apple"}},
		{SortTitleAsc, []string{"apple", "banana", "cherry"}},
		{SortTitleDesc, []string{"cherry", "banana", "apple"}},
	}
	for _, tt := range tests {
		got := titles(Query{Sort: tt.sort}.Run(articles))
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("sort %q = %v, want %v", tt.sort, got, tt.want)
				break
			}
		}
	}
}

func TestQueryFuzzyDefaultsToSimilaritySort(t *testing.T) {
	articles := []*store.Article{
		art("sitting", "", "", "2025-01-09"),
		art("a kitten", "", "", "2025-01-01"),
	}
	got := Query{Keyword: "kitten", Fuzzy: true}.Run(articles)
	if len(got) != 2 || got[0].Article.Title != "a kitten" {
		t.Errorf("fuzzy default sort = %v, want similarity descending", titles(got))
	}
}

func TestCategoriesFirstSeenOrder(t *testing.T) {
	articles := []*store.Article{
		art("A", "", "infra", ""),
		art("B", "", "", ""),
		art("C", "", "tools", ""),
		art("D", "", "infra", ""),
	}
	got := Categories(articles)
	want := []string{"infra", uncategorized, "tools"}
	if len(got) != len(want) {
		t.Fatalf("categories = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("categories = %v, want %v", got, want)
			break
		}
	}
}
