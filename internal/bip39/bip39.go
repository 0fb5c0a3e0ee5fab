// Package bip39 implements mnemonic phrase validation, prefix search, and
// passphrase normalisation against the ten BIP39-language wordlists embedded
// by the wordlistdata package.
package bip39

import (
	"crypto/sha256"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/text/unicode/norm"

	"github.com/verrou-vault/verrou-core/internal/vaulterr"
	"github.com/verrou-vault/verrou-core/internal/wordlistdata"
)

// Language enumerates the ten BIP39 wordlists this package embeds.
type Language int

const (
	English Language = iota
	Italian
	Portuguese
	French
	Spanish
	Czech
	Japanese
	Korean
	ChineseSimplified
	ChineseTraditional
)

var resourceName = map[Language]string{
	English:            "english",
	Italian:            "italian",
	Portuguese:         "portuguese",
	French:             "french",
	Spanish:            "spanish",
	Czech:              "czech",
	Japanese:           "japanese",
	Korean:             "korean",
	ChineseSimplified:  "chinese_simplified",
	ChineseTraditional: "chinese_traditional",
}

// sortedForBinarySearch reports whether a language's wordlist is stored in
// byte-sorted order, letting suggest_words/word_index/validate_word use
// binary search instead of a linear scan. Per the contract, English,
// Italian, and Portuguese are the three byte-sorted lists.
func (l Language) sortedForBinarySearch() bool {
	switch l {
	case English, Italian, Portuguese:
		return true
	default:
		return false
	}
}

func (l Language) String() string {
	switch l {
	case English:
		return "English"
	case Italian:
		return "Italian"
	case Portuguese:
		return "Portuguese"
	case French:
		return "French"
	case Spanish:
		return "Spanish"
	case Czech:
		return "Czech"
	case Japanese:
		return "Japanese"
	case Korean:
		return "Korean"
	case ChineseSimplified:
		return "ChineseSimplified"
	case ChineseTraditional:
		return "ChineseTraditional"
	default:
		return "Unknown"
	}
}

// SortedForBinarySearch exposes Language.sortedForBinarySearch as the
// static property named in the module contract.
func SortedForBinarySearch(l Language) bool {
	return l.sortedForBinarySearch()
}

// Wordlist is a loaded, process-lifetime-immutable BIP39 wordlist.
type Wordlist struct {
	language Language
	words    []string
	sorted   bool
}

// caches holds one lazily-initialised Wordlist per Language, following a
// classic double-checked initialisation: a process only ever parses each
// embedded resource once.
var (
	caches  [10]atomic.Pointer[Wordlist]
	cacheMu sync.Mutex
)

// Load returns the Wordlist for l, parsing and validating the embedded
// resource on first use and reusing the cached result afterward.
func Load(l Language) (*Wordlist, error) {
	if int(l) < 0 || int(l) >= len(caches) {
		return nil, vaulterr.New(vaulterr.Bip39, "unknown language")
	}
	if cached := caches[l].Load(); cached != nil {
		return cached, nil
	}
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cached := caches[l].Load(); cached != nil {
		return cached, nil
	}

	name, ok := resourceName[l]
	if !ok {
		return nil, vaulterr.New(vaulterr.Bip39, "unknown language")
	}
	words := wordlistdata.Load(name)
	if len(words) != wordlistdata.BIP39WordlistSize {
		return nil, vaulterr.New(vaulterr.Bip39, "wordlist must contain exactly 2048 entries")
	}
	for _, w := range words {
		if w == "" {
			return nil, vaulterr.New(vaulterr.Bip39, "wordlist contains an empty entry")
		}
	}

	wl := &Wordlist{language: l, words: words, sorted: l.sortedForBinarySearch()}
	caches[l].Store(wl)
	return wl, nil
}

// WordIndex returns the 0-based position of word in the list, or false if
// word is not a member.
func (wl *Wordlist) WordIndex(word string) (int, bool) {
	if wl.sorted {
		i := sort.SearchStrings(wl.words, word)
		if i < len(wl.words) && wl.words[i] == word {
			return i, true
		}
		return 0, false
	}
	for i, w := range wl.words {
		if w == word {
			return i, true
		}
	}
	return 0, false
}

// WordAt returns the word at the given 0-based index. Panics if idx is out
// of range, since callers always derive idx from a value already reduced
// modulo the list length.
func (wl *Wordlist) WordAt(idx int) string {
	return wl.words[idx]
}

// ValidateWord reports whether word is a member of the list.
func (wl *Wordlist) ValidateWord(word string) bool {
	_, ok := wl.WordIndex(word)
	return ok
}

// SuggestWords returns at most max entries with the given prefix,
// preserving list order. Sorted lists use binary search to locate the
// prefix's span; unsorted lists fall back to a linear scan.
func (wl *Wordlist) SuggestWords(prefix string, max int) []string {
	if max <= 0 {
		return nil
	}

	var out []string
	if wl.sorted {
		start := sort.SearchStrings(wl.words, prefix)
		for i := start; i < len(wl.words) && len(out) < max; i++ {
			if !strings.HasPrefix(wl.words[i], prefix) {
				break
			}
			out = append(out, wl.words[i])
		}
		return out
	}

	for _, w := range wl.words {
		if len(out) >= max {
			break
		}
		if strings.HasPrefix(w, prefix) {
			out = append(out, w)
		}
	}
	return out
}

// validCounts maps an accepted mnemonic word count to the entropy length
// (bits) it encodes; the remaining word_count*11-entropy bits are the
// checksum, always entropy_len/32 bits per BIP39.
var validCounts = map[int]int{
	12: 128,
	15: 160,
	18: 192,
	21: 224,
	24: 256,
}

// ValidatePhrase checks that words has an accepted length, that every word
// is a member of language's wordlist, and that the trailing checksum bits
// match SHA-256 of the reconstructed entropy.
func ValidatePhrase(words []string, language Language) (bool, error) {
	entropyBits, ok := validCounts[len(words)]
	if !ok {
		return false, nil
	}

	wl, err := Load(language)
	if err != nil {
		return false, err
	}

	checksumBits := entropyBits / 32
	totalBits := entropyBits + checksumBits

	bits := make([]byte, 0, totalBits)
	for _, w := range words {
		idx, ok := wl.WordIndex(w)
		if !ok {
			return false, nil
		}
		for b := 10; b >= 0; b-- {
			bits = append(bits, byte((idx>>uint(b))&1))
		}
	}
	if len(bits) != totalBits {
		return false, nil
	}

	entropy := packBits(bits[:entropyBits])
	sum := sha256.Sum256(entropy)

	for i := 0; i < checksumBits; i++ {
		expected := (sum[i/8] >> uint(7-i%8)) & 1
		if expected != bits[entropyBits+i] {
			return false, nil
		}
	}
	return true, nil
}

// packBits packs a slice of 0/1 bytes (most-significant bit first) into a
// byte slice. len(bits) must be a multiple of 8.
func packBits(bits []byte) []byte {
	out := make([]byte, len(bits)/8)
	for i, bit := range bits {
		if bit != 0 {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

// NormalizePassphrase implements BIP39's fixed passphrase-normalisation
// rule: NFKD-normalise the passphrase and prepend the literal salt prefix
// "mnemonic", exactly as external wallets expect for seed derivation.
func NormalizePassphrase(passphrase string) []byte {
	return norm.NFKD.Bytes([]byte("mnemonic" + passphrase))
}
