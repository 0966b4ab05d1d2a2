package loader

import (
	"fmt"
	"os"
	"path/filepath"
)

// SampleCorpusCSV is a small single-column corpus for smoke testing the
// index and query pipeline without external data.
const SampleCorpusCSV = `content
"Interlibrary loan (abbreviated ILL) is a service that enables patrons of one library to borrow physical materials and receive electronic documents that are held by another library. The service expands library patrons' access to resources beyond their local library's holdings."
"After receiving a request from their patron, the borrowing library identifies potential lending libraries with the desired item. The lending library then delivers the item physically or electronically, and the borrowing library receives the item, delivers it to their patron, and if necessary, arranges for its return."
"Machine learning is a method of data analysis that automates analytical model building. It is a branch of artificial intelligence based on the idea that systems can learn from data, identify patterns and make decisions with minimal human intervention."
"Retrieval-Augmented Generation (RAG) is a technique that combines retrieval systems with generative language models to provide more accurate and contextually relevant responses by incorporating external knowledge sources."
"Python is a high-level, interpreted programming language with dynamic semantics. Its high-level built-in data structures, combined with dynamic typing and dynamic binding, make it very attractive for Rapid Application Development."
"The solar system consists of the Sun and the objects that orbit it, including eight planets, their moons, and smaller bodies like asteroids and comets. Earth is the third planet from the Sun and the only known planet to harbor life."
`

// WriteSampleCorpus writes the sample corpus CSV to the given path,
// creating parent directories as needed.
func WriteSampleCorpus(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(SampleCorpusCSV), 0o644); err != nil {
		return fmt.Errorf("failed to write sample corpus: %w", err)
	}
	return nil
}
