package onnx

import (
	"encoding/json"
	"os"
	"strings"
	"unicode"

	"github.com/m-mizutani/goerr/v2"
)

// maxWordChars is the longest word the WordPiece pass will split. Longer
// words become a single [UNK].
const maxWordChars = 100

// Tokenizer is a lower-casing BERT WordPiece tokenizer loaded from a
// Hugging Face tokenizer.json.
type Tokenizer struct {
	vocab map[string]int
	cls   int
	sep   int
	unk   int
}

// LoadTokenizer reads the vocabulary from a tokenizer.json file.
func LoadTokenizer(path string) (*Tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "read tokenizer", goerr.V("path", path))
	}

	var file struct {
		Model struct {
			Vocab map[string]int `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "parse tokenizer", goerr.V("path", path))
	}
	if len(file.Model.Vocab) == 0 {
		return nil, goerr.New("tokenizer has an empty vocabulary", goerr.V("path", path))
	}
	return NewTokenizer(file.Model.Vocab), nil
}

// NewTokenizer builds a tokenizer over vocab. Special tokens missing from
// the vocabulary fall back to the bert-base ids.
func NewTokenizer(vocab map[string]int) *Tokenizer {
	lookup := func(token string, def int) int {
		if id, ok := vocab[token]; ok {
			return id
		}
		return def
	}
	return &Tokenizer{
		vocab: vocab,
		cls:   lookup("[CLS]", 101),
		sep:   lookup("[SEP]", 102),
		unk:   lookup("[UNK]", 100),
	}
}

// Encode returns the model inputs for text padded to maxLen: token ids
// framed by [CLS] and [SEP], and the attention mask.
func (t *Tokenizer) Encode(text string, maxLen int) (ids, mask []int64) {
	ids = make([]int64, maxLen)
	mask = make([]int64, maxLen)

	tokens := t.Tokenize(text)
	if len(tokens) > maxLen-2 {
		tokens = tokens[:maxLen-2]
	}

	ids[0], mask[0] = int64(t.cls), 1
	for i, tok := range tokens {
		ids[i+1], mask[i+1] = tok, 1
	}
	end := len(tokens) + 1
	ids[end], mask[end] = int64(t.sep), 1
	return ids, mask
}

// Tokenize converts text to WordPiece token ids without special tokens.
func (t *Tokenizer) Tokenize(text string) []int64 {
	var tokens []int64
	for _, word := range splitWords(strings.ToLower(text)) {
		if id, ok := t.vocab[word]; ok {
			tokens = append(tokens, int64(id))
			continue
		}
		tokens = append(tokens, t.wordPiece(word)...)
	}
	return tokens
}

// wordPiece splits word into the longest vocabulary pieces, left to right.
// A word that cannot be fully covered is a single [UNK].
func (t *Tokenizer) wordPiece(word string) []int64 {
	runes := []rune(word)
	if len(runes) > maxWordChars {
		return []int64{int64(t.unk)}
	}

	var pieces []int64
	for start := 0; start < len(runes); {
		end := len(runes)
		id := -1
		for ; end > start; end-- {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if v, ok := t.vocab[sub]; ok {
				id = v
				break
			}
		}
		if id < 0 {
			return []int64{int64(t.unk)}
		}
		pieces = append(pieces, int64(id))
		start = end
	}
	return pieces
}

// splitWords splits on whitespace and isolates punctuation as its own word,
// as BERT's basic tokenizer does.
func splitWords(text string) []string {
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
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
			cur = append(cur, r)
		}
	}
	flush()
	return words
}
