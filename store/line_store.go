package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"strings"
	"sync"

	"github.com/gcbaptista/go-kwic/internal/errors"
)

// LineStore owns a corpus as an ordered sequence of lines, each an ordered
// sequence of words. Every accessor is range-checked and fails with an
// errors.OutOfRangeError instead of clamping.
//
// Words handed in or out are copied, so callers never alias stored data.
type LineStore struct {
	mu    sync.RWMutex
	lines [][]string
}

// gobLineStoreData is a helper struct for Gob encoding/decoding LineStore data.
// It excludes the mutex.
type gobLineStoreData struct {
	Lines [][]string
}

// NewLineStore creates an empty line store.
func NewLineStore() *LineStore {
	return &LineStore{lines: make([][]string, 0)}
}

// NewLineStoreFromWords creates a store holding a copy of the given lines.
func NewLineStoreFromWords(lines [][]string) *LineStore {
	ls := &LineStore{lines: make([][]string, 0, len(lines))}
	for _, words := range lines {
		ls.lines = append(ls.lines, cloneWords(words))
	}
	return ls
}

// LineCount returns the current number of lines.
func (ls *LineStore) LineCount() int {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return len(ls.lines)
}

// WordCount returns the number of words in line.
func (ls *LineStore) WordCount(line int) (int, error) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	if err := ls.checkLineUnsafe(line); err != nil {
		return 0, err
	}
	return len(ls.lines[line]), nil
}

// TotalWordCount returns the sum of word counts over all lines.
func (ls *LineStore) TotalWordCount() int {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	total := 0
	for _, words := range ls.lines {
		total += len(words)
	}
	return total
}

// Word returns the word at (line, word).
func (ls *LineStore) Word(line, word int) (string, error) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	if err := ls.checkWordUnsafe(line, word); err != nil {
		return "", err
	}
	return ls.lines[line][word], nil
}

// SetWord replaces the word at (line, word).
func (ls *LineStore) SetWord(line, word int, value string) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := ls.checkWordUnsafe(line, word); err != nil {
		return err
	}
	ls.lines[line][word] = value
	return nil
}

// AddWord appends a word to the end of line.
func (ls *LineStore) AddWord(line int, value string) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := ls.checkLineUnsafe(line); err != nil {
		return err
	}
	ls.lines[line] = append(ls.lines[line], value)
	return nil
}

// AddEmptyWord appends an empty word to the end of line.
func (ls *LineStore) AddEmptyWord(line int) error {
	return ls.AddWord(line, "")
}

// InsertWord inserts value before position word; word may equal the word count,
// in which case the word is appended. Later words shift up by one.
func (ls *LineStore) InsertWord(line, word int, value string) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := ls.checkLineUnsafe(line); err != nil {
		return err
	}
	words := ls.lines[line]
	if word < 0 || word > len(words) {
		return errors.NewOutOfRangeError(errors.KindWord, word, len(words)+1)
	}
	words = append(words, "")
	copy(words[word+1:], words[word:])
	words[word] = value
	ls.lines[line] = words
	return nil
}

// DeleteWord removes the word at (line, word). Later words shift down by one.
func (ls *LineStore) DeleteWord(line, word int) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := ls.checkWordUnsafe(line, word); err != nil {
		return err
	}
	words := ls.lines[line]
	ls.lines[line] = append(words[:word], words[word+1:]...)
	return nil
}

// CharCount returns the number of characters (code points) in the word at (line, word).
func (ls *LineStore) CharCount(line, word int) (int, error) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	if err := ls.checkWordUnsafe(line, word); err != nil {
		return 0, err
	}
	return len([]rune(ls.lines[line][word])), nil
}

// Char returns the character at position pos of the word at (line, word).
func (ls *LineStore) Char(line, word, pos int) (rune, error) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	chars, err := ls.charsUnsafe(line, word, pos)
	if err != nil {
		return 0, err
	}
	return chars[pos], nil
}

// SetChar replaces the character at position pos of the word at (line, word).
func (ls *LineStore) SetChar(line, word, pos int, c rune) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	chars, err := ls.charsUnsafe(line, word, pos)
	if err != nil {
		return err
	}
	chars[pos] = c
	ls.lines[line][word] = string(chars)
	return nil
}

// AddChar appends a character to the word at (line, word).
func (ls *LineStore) AddChar(line, word int, c rune) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := ls.checkWordUnsafe(line, word); err != nil {
		return err
	}
	ls.lines[line][word] += string(c)
	return nil
}

// DeleteChar removes the character at position pos of the word at (line, word).
func (ls *LineStore) DeleteChar(line, word, pos int) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	chars, err := ls.charsUnsafe(line, word, pos)
	if err != nil {
		return err
	}
	ls.lines[line][word] = string(append(chars[:pos], chars[pos+1:]...))
	return nil
}

// AppendLine adds a line holding a copy of words at the end of the store.
// Indices of existing lines are unaffected.
func (ls *LineStore) AppendLine(words []string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.lines = append(ls.lines, cloneWords(words))
}

// AppendEmptyLine adds a line with no words at the end of the store.
func (ls *LineStore) AppendEmptyLine() {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.lines = append(ls.lines, make([]string, 0))
}

// SetLine replaces all words of line.
func (ls *LineStore) SetLine(line int, words []string) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := ls.checkLineUnsafe(line); err != nil {
		return err
	}
	ls.lines[line] = cloneWords(words)
	return nil
}

// DeleteLine removes line. Indices of later lines shift down by one.
func (ls *LineStore) DeleteLine(line int) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := ls.checkLineUnsafe(line); err != nil {
		return err
	}
	ls.lines = append(ls.lines[:line], ls.lines[line+1:]...)
	return nil
}

// LineAsWords returns a copy of the words of line.
func (ls *LineStore) LineAsWords(line int) ([]string, error) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	if err := ls.checkLineUnsafe(line); err != nil {
		return nil, err
	}
	return cloneWords(ls.lines[line]), nil
}

// LineAsText returns the words of line joined by single spaces.
func (ls *LineStore) LineAsText(line int) (string, error) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	if err := ls.checkLineUnsafe(line); err != nil {
		return "", err
	}
	return strings.Join(ls.lines[line], " "), nil
}

// GobEncode implements the gob.GobEncoder interface for LineStore.
func (ls *LineStore) GobEncode() ([]byte, error) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(gobLineStoreData{Lines: ls.lines}); err != nil {
		return nil, fmt.Errorf("failed to gob encode line store data: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for LineStore.
func (ls *LineStore) GobDecode(data []byte) error {
	decodedData := gobLineStoreData{}

	decoder := gob.NewDecoder(bytes.NewBuffer(data))
	if err := decoder.Decode(&decodedData); err != nil {
		return fmt.Errorf("failed to gob decode line store data: %w", err)
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	// empty lines may decode as nil
	ls.lines = make([][]string, len(decodedData.Lines))
	for i, words := range decodedData.Lines {
		ls.lines[i] = cloneWords(words)
	}
	return nil
}

func (ls *LineStore) checkLineUnsafe(line int) error {
	if line < 0 || line >= len(ls.lines) {
		return errors.NewOutOfRangeError(errors.KindLine, line, len(ls.lines))
	}
	return nil
}

func (ls *LineStore) checkWordUnsafe(line, word int) error {
	if err := ls.checkLineUnsafe(line); err != nil {
		return err
	}
	if word < 0 || word >= len(ls.lines[line]) {
		return errors.NewOutOfRangeError(errors.KindWord, word, len(ls.lines[line]))
	}
	return nil
}

// charsUnsafe returns the word at (line, word) as runes after checking pos.
func (ls *LineStore) charsUnsafe(line, word, pos int) ([]rune, error) {
	if err := ls.checkWordUnsafe(line, word); err != nil {
		return nil, err
	}
	chars := []rune(ls.lines[line][word])
	if pos < 0 || pos >= len(chars) {
		return nil, errors.NewOutOfRangeError(errors.KindCharacter, pos, len(chars))
	}
	return chars, nil
}

func cloneWords(words []string) []string {
	out := make([]string, len(words))
	copy(out, words)
	return out
}
