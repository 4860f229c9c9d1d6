package aionnx

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// WordPiece implements the lower-cased BERT WordPiece scheme used by MiniLM models
type WordPiece struct {
	vocab map[string]int
	cls   int64
	sep   int64
	unk   int64
}

// LoadWordPiece reads the vocabulary from a Hugging Face tokenizer.json
func LoadWordPiece(path string) (*WordPiece, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokenizer: %w", err)
	}

	var raw struct {
		Model struct {
			Vocab map[string]int `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse tokenizer: %w", err)
	}
	if len(raw.Model.Vocab) == 0 {
		return nil, fmt.Errorf("tokenizer %s has an empty vocabulary", path)
	}
	return NewWordPiece(raw.Model.Vocab), nil
}

func NewWordPiece(vocab map[string]int) *WordPiece {
	wp := &WordPiece{vocab: vocab, cls: 101, sep: 102, unk: 100}
	if id, ok := vocab["[CLS]"]; ok {
		wp.cls = int64(id)
	}
	if id, ok := vocab["[SEP]"]; ok {
		wp.sep = int64(id)
	}
	if id, ok := vocab["[UNK]"]; ok {
		wp.unk = int64(id)
	}
	return wp
}

// Encode returns input ids and attention mask padded to maxLen, wrapped in [CLS] ... [SEP]
func (wp *WordPiece) Encode(text string, maxLen int) (ids, mask []int64) {
	ids = make([]int64, maxLen)
	mask = make([]int64, maxLen)

	tokens := wp.Tokenize(text)
	if len(tokens) > maxLen-2 {
		tokens = tokens[:maxLen-2]
	}

	ids[0], mask[0] = wp.cls, 1
	for i, tok := range tokens {
		ids[i+1], mask[i+1] = tok, 1
	}
	end := len(tokens) + 1
	ids[end], mask[end] = wp.sep, 1
	return ids, mask
}

// Tokenize splits on whitespace and punctuation, then greedily matches the longest vocabulary pieces
func (wp *WordPiece) Tokenize(text string) []int64 {
	var out []int64
	for _, word := range splitWords(strings.ToLower(text)) {
		if id, ok := wp.vocab[word]; ok {
			out = append(out, int64(id))
			continue
		}
		out = append(out, wp.pieces(word)...)
	}
	return out
}

func (wp *WordPiece) pieces(word string) []int64 {
	runes := []rune(word)
	var out []int64
	start := 0
	for start < len(runes) {
		end := len(runes)
		matched := false
		for end > start {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if id, ok := wp.vocab[sub]; ok {
				out = append(out, int64(id))
				start = end
				matched = true
				break
			}
			end--
		}
		if !matched {
			// a word with any unknown piece maps to a single [UNK]
			return []int64{wp.unk}
		}
	}
	return out
}

func splitWords(text string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			words = append(words, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}
