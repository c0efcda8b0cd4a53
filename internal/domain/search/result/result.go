package result

// Result is a single hit from the course embedding index.
type Result struct {
	id            string
	courseID      string
	subjectNumber string
	department    string
	embeddingType string
	score         float64
	snippet       string
}

// New creates a search result.
func New(
	id, courseID, subjectNumber, department, embeddingType string,
	score float64, snippet string,
) Result {
	return Result{
		id: id, courseID: courseID, subjectNumber: subjectNumber,
		department: department, embeddingType: embeddingType,
		score: score, snippet: snippet,
	}
}

// ID returns the index document identifier.
func (r *Result) ID() string { return r.id }

// CourseID returns the catalog ID of the course offering.
func (r *Result) CourseID() string { return r.courseID }

// SubjectNumber returns the indexed subject number.
func (r *Result) SubjectNumber() string { return r.subjectNumber }

// Department returns the indexed department code.
func (r *Result) Department() string { return r.department }

// EmbeddingType returns the type of text the embedding was derived from.
func (r *Result) EmbeddingType() string { return r.embeddingType }

// Score returns the relevance score.
func (r *Result) Score() float64 { return r.score }

// Snippet returns the matched source text excerpt.
func (r *Result) Snippet() string { return r.snippet }

// WithScore returns a copy carrying a new score.
func (r Result) WithScore(score float64) Result {
	r.score = score
	return r
}
