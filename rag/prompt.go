package rag

import "strings"

// The instruction blocks below are sent to the model as-is; answers depend on
// their exact wording.

const retrievalInstructions = `INSTRUCTIONS:
You are an expert Q&A assistant. Use the retrieved CONTEXT from the documents as the primary source and revolve your answer around it.

- If the CONTEXT contains the answer (including definitions or acronym expansions), reply using the CONTEXT verbatim or synthesized from it.
- If the CONTEXT does NOT contain the answer, use Gemini's general knowledge to answer succinctly.
- Keep answers concise (1-3 sentences). Do NOT include a "Sources:" list or metadata.

Example:
CONTEXT: 'RAG (Retrieval-Augmented Generation) is a technique that combines retrieval with generation.'
Q: 'What is RAG?'
A: 'RAG stands for Retrieval-Augmented Generation — a technique that combines a retrieval step with a generative model so responses can be grounded in documents.'
`

const documentInstructions = `INSTRUCTIONS:
You are an expert Q&A assistant. Use the provided CONTEXT from the documents as your primary source of truth and revolve your answer around that content.

- If the CONTEXT contains a clear answer to the user's question (including definitions or acronym expansions), answer using the CONTEXT and do not add unrelated external info.
- If the CONTEXT does NOT contain the answer, use Gemini's general knowledge to answer the question, but still keep the answer concise and relevant to the user's query.
- Produce a concise, direct answer (1-3 sentences). Do NOT list sources or add a "Sources:" line.

Examples:
Context: 'RAG (Retrieval-Augmented Generation) is a technique that combines retrieval mechanisms with a generative model to ground responses in external documents.'
Q: 'What is RAG?'
A: 'RAG stands for Retrieval-Augmented Generation — a method that uses retrieved documents to ground a generative model's responses.'

Context: '' (empty)
Q: 'What is RAG?'
A: 'RAG, or Retrieval-Augmented Generation, is a technique that augments a generative model with an external retrieval step so responses can be grounded in documents.'
`

// BuildRetrievalPrompt assembles the prompt for a retrieval-backed question.
// Chunks appear in rank order, each under a header naming its document.
func BuildRetrievalPrompt(results []ScoredChunk, question string) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = "--- Document: " + r.Chunk.DocumentName + " ---\n" + r.Chunk.Text
	}

	var b strings.Builder
	b.WriteString(retrievalInstructions)
	b.WriteString("\n\nCONTEXT:\n")
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString("\n--- QUESTION ---\n")
	b.WriteString(question)
	return b.String()
}

// BuildDocumentPrompt assembles a prompt carrying whole documents, without retrieval.
func BuildDocumentPrompt(docs []Document, question string) string {
	var ctx strings.Builder
	ctx.WriteString("CONTEXT:\n")
	for _, d := range docs {
		ctx.WriteString("--- Document: " + d.Name + " ---\n")
		ctx.WriteString(strings.TrimSpace(d.Content) + "\n\n")
	}
	return documentInstructions + "\n\n" + ctx.String() + "\n--- QUESTION ---\n" + question
}
