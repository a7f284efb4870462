package wikify

import "context"

// ArticleIDs returns the set of article ids linked from text.
func (c *Client) ArticleIDs(ctx context.Context, text string) (map[int64]bool, error) {
	anns, err := c.Annotate(ctx, text)
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]bool, len(anns))
	for _, a := range anns {
		ids[a.ID] = true
	}
	return ids, nil
}

// Score counts the annotations of sentence that link to one of ids.
func (c *Client) Score(ctx context.Context, sentence string, ids map[int64]bool) (int, error) {
	anns, err := c.Annotate(ctx, sentence)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, a := range anns {
		if ids[a.ID] {
			n++
		}
	}
	return n, nil
}

// ArticleScorer rates sentences by how many of their annotations link to the
// articles of a reference text such as the title or an introduction.
type ArticleScorer struct {
	client *Client
	ids    map[int64]bool
}

// NewArticleScorer annotates reference once and returns a scorer against its
// articles.
func NewArticleScorer(ctx context.Context, c *Client, reference string) (*ArticleScorer, error) {
	ids, err := c.ArticleIDs(ctx, reference)
	if err != nil {
		return nil, err
	}
	return &ArticleScorer{client: c, ids: ids}, nil
}

// Articles returns the number of reference articles.
func (s *ArticleScorer) Articles() int {
	return len(s.ids)
}

// Score returns the article overlap of each sentence.
func (s *ArticleScorer) Score(ctx context.Context, sentences []string) ([]float64, error) {
	out := make([]float64, len(sentences))
	for i, sent := range sentences {
		n, err := s.client.Score(ctx, sent, s.ids)
		if err != nil {
			return nil, err
		}
		out[i] = float64(n)
	}
	return out, nil
}
