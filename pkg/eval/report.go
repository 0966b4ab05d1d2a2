package eval

import (
	"math"
	"time"

	"github.com/wayfind-ai/wayfind/pkg/flow"
)

// Report aggregates a set of evaluation results.
type Report struct {
	Summary struct {
		TotalQuestions  int     `json:"total_questions"`
		AvgResponseSec  float64 `json:"avg_response_time_seconds"`
		AvgAnswerWords  float64 `json:"avg_answer_length_words"`
		AvgDocumentsUse float64 `json:"avg_documents_used"`
	} `json:"summary"`
	Routing struct {
		VectorstoreQueries    int     `json:"vectorstore_queries"`
		WebSearchQueries      int     `json:"web_search_queries"`
		VectorstorePercentage float64 `json:"vectorstore_percentage"`
		WebSearchPercentage   float64 `json:"web_search_percentage"`
	} `json:"routing"`
	Quality struct {
		ResponsesWithCitations int     `json:"responses_with_citations"`
		CitationPercentage     float64 `json:"citation_percentage"`
		ResponsesWithContext   int     `json:"responses_with_context"`
	} `json:"quality_indicators"`
	Performance struct {
		FastestResponseSec float64 `json:"fastest_response"`
		SlowestResponseSec float64 `json:"slowest_response"`
		LongestAnswer      int     `json:"longest_answer"`
		ShortestAnswer     int     `json:"shortest_answer"`
	} `json:"performance"`
}

// GenerateReport summarizes the collected results. It returns the zero
// report when nothing has been evaluated.
func (e *Evaluator) GenerateReport() Report {
	return BuildReport(e.results)
}

// BuildReport aggregates the given metrics into a report.
func BuildReport(results []Metrics) Report {
	var report Report
	total := len(results)
	if total == 0 {
		return report
	}

	var sumTime time.Duration
	var sumWords, sumDocs int
	fastest, slowest := results[0].ResponseTime, results[0].ResponseTime
	longest, shortest := results[0].AnswerWords, results[0].AnswerWords

	for _, r := range results {
		sumTime += r.ResponseTime
		sumWords += r.AnswerWords
		sumDocs += r.DocumentCount

		if r.ResponseTime < fastest {
			fastest = r.ResponseTime
		}
		if r.ResponseTime > slowest {
			slowest = r.ResponseTime
		}
		if r.AnswerWords > longest {
			longest = r.AnswerWords
		}
		if r.AnswerWords < shortest {
			shortest = r.AnswerWords
		}

		switch r.RouteTaken {
		case flow.NodeRetrieve:
			report.Routing.VectorstoreQueries++
		case flow.NodeWebSearch:
			report.Routing.WebSearchQueries++
		}
		if r.ContainsCitation {
			report.Quality.ResponsesWithCitations++
		}
		if r.DocumentCount > 0 {
			report.Quality.ResponsesWithContext++
		}
	}

	report.Summary.TotalQuestions = total
	report.Summary.AvgResponseSec = round2(sumTime.Seconds() / float64(total))
	report.Summary.AvgAnswerWords = round1(float64(sumWords) / float64(total))
	report.Summary.AvgDocumentsUse = round1(float64(sumDocs) / float64(total))

	report.Routing.VectorstorePercentage = round1(float64(report.Routing.VectorstoreQueries) / float64(total) * 100)
	report.Routing.WebSearchPercentage = round1(float64(report.Routing.WebSearchQueries) / float64(total) * 100)
	report.Quality.CitationPercentage = round1(float64(report.Quality.ResponsesWithCitations) / float64(total) * 100)

	report.Performance.FastestResponseSec = round2(fastest.Seconds())
	report.Performance.SlowestResponseSec = round2(slowest.Seconds())
	report.Performance.LongestAnswer = longest
	report.Performance.ShortestAnswer = shortest

	return report
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
