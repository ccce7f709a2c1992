//go:build js && wasm

package main

import (
	"encoding/json"
	"io"
	"syscall/js"

	"github.com/charmbracelet/log"

	"medcite/internal/adapter/analyzer"
	"medcite/internal/adapter/chunker"
	"medcite/internal/adapter/embedding"
	"medcite/internal/adapter/memstore"
	"medcite/internal/adapter/retriever"
	"medcite/internal/adapter/vectorindex"
	"medcite/internal/domain"
	"medcite/internal/usecase"
)

const dimension = 384

var (
	logger   = log.New(io.Discard)
	embedder *embedding.HashEmbedder
	prompts  *usecase.PromptBuilder
	index    *vectorindex.Index
	ingestUC *usecase.IngestUseCase
	answerUC *usecase.AnswerUseCase
)

func init() {
	var err error
	embedder, err = embedding.NewHashEmbedder(dimension, 0, analyzer.NewTokenizer())
	if err != nil {
		panic(err)
	}
	prompts, err = usecase.NewPromptBuilder()
	if err != nil {
		panic(err)
	}
	reset()
}

// reset replaces the index with an empty in-memory one.
func reset() {
	index = vectorindex.New(memstore.NewMemoryStore())
	ingestUC = usecase.NewIngestUseCase(chunker.NewDocumentChunker(), embedder, index, logger)
	answerUC = usecase.NewAnswerUseCase(retriever.NewSemanticRetriever(embedder, index), prompts, nil, usecase.DefaultTopK, logger)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("ragIndex", js.FuncOf(indexContent))
	js.Global().Set("ragSearch", js.FuncOf(searchContent))
	js.Global().Set("ragPrompt", js.FuncOf(promptContent))
	js.Global().Set("ragClear", js.FuncOf(clearIndex))
	js.Global().Set("ragStats", js.FuncOf(getStats))

	<-c
}

func indexContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: ragIndex(filename, content)")
	}

	doc := domain.Document{
		SourceID: args[0].String(),
		Text:     args[1].String(),
	}

	result, err := ingestUC.Ingest([]domain.Document{doc}, nil)
	if err != nil {
		return makeError("indexing failed: " + err.Error())
	}

	return makeResult(map[string]interface{}{
		"success":  true,
		"chunks":   result.ChunksAdded,
		"skipped":  result.ChunksSkipped,
		"filename": doc.SourceID,
	})
}

func searchContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: ragSearch(query, [topK])")
	}

	query := args[0].String()
	topK := usecase.DefaultTopK
	if len(args) > 1 {
		topK = args[1].Int()
	}

	retrieveUC := usecase.NewRetrieveUseCase(retriever.NewSemanticRetriever(embedder, index), 0)
	chunks, err := retrieveUC.Retrieve(query, topK)
	if err != nil {
		return makeError("search failed: " + err.Error())
	}

	return makeResult(map[string]interface{}{
		"results": usecase.ToResults(chunks),
		"query":   query,
	})
}

func promptContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: ragPrompt(query)")
	}

	prompt, chunks, err := answerUC.Prompt(args[0].String())
	if err != nil {
		return makeError("prompt failed: " + err.Error())
	}

	bundle := domain.NewAnswerBundle("", chunks)
	return makeResult(map[string]interface{}{
		"prompt":  prompt,
		"context": bundle.RAGContext,
		"sources": bundle.Sources,
	})
}

func clearIndex(this js.Value, args []js.Value) interface{} {
	reset()
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

func getStats(this js.Value, args []js.Value) interface{} {
	seen := make(map[string]struct{})
	files := []string{}
	for _, e := range index.Entries() {
		src := e.Chunk.Source()
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		files = append(files, src)
	}

	return makeResult(map[string]interface{}{
		"totalChunks": index.Len(),
		"dimension":   index.Dimension(),
		"embedder":    embedder.ModelName(),
		"files":       files,
	})
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
