package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// ErrNoRecords returned by converters if input has no usable records
var ErrNoRecords = errors.New("no records")

// maxLineSize is the longest jsonl line accepted
const maxLineSize = 16 * 1024 * 1024

// Result of a conversion. Malformed rows are skipped, counted and described in Problems.
type Result struct {
	Records  []Record
	Skipped  int
	Problems error
}

// CSVOpts defines csv columns. Empty names resolved by aliases against the header.
type CSVOpts struct {
	TextCol  string
	LabelCol string
}

// ConvertCSV reads csv with header row. Columns resolved once against the header, rows with wrong number
// of fields, unknown labels or empty text are skipped.
func ConvertCSV(r io.Reader, opts CSVOpts) (Result, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, fmt.Errorf("empty csv: %w", ErrNoRecords)
	}
	if err != nil {
		return Result{}, fmt.Errorf("can't read csv header: %w", err)
	}
	header = slices.Clone(header)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	textIdx, err := resolveColumn(header, opts.TextCol, textFields)
	if err != nil {
		return Result{}, fmt.Errorf("text column: %w", err)
	}
	labelIdx, err := resolveColumn(header, opts.LabelCol, labelFields)
	if err != nil {
		return Result{}, fmt.Errorf("label column: %w", err)
	}

	res := Result{}
	errs := &rowErrors{}
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Skipped++
				errs.add(row, err)
				continue
			}
			return Result{}, fmt.Errorf("can't read csv row %d: %w", row, err)
		}
		record, err := makeRecord(rec[labelIdx], rec[textIdx])
		if err != nil {
			res.Skipped++
			errs.add(row, err)
			continue
		}
		res.Records = append(res.Records, record)
	}
	res.Problems = errs.err()

	if len(res.Records) == 0 {
		return res, ErrNoRecords
	}
	return res, nil
}

type hc3Item struct {
	HumanAnswers   []string `json:"human_answers"`
	ChatGPTAnswers []string `json:"chatgpt_answers"`
}

// ConvertHC3 reads HC3 dataset, either a json array of items or one item per line.
// Each human answer becomes a human record, each chatgpt answer an ai record.
func ConvertHC3(r io.Reader) (Result, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		return Result{}, fmt.Errorf("empty hc3 input: %w", ErrNoRecords)
	}

	res := Result{}
	if first == '[' {
		var items []hc3Item
		if err := json.NewDecoder(br).Decode(&items); err != nil {
			return Result{}, fmt.Errorf("can't decode hc3 array: %w", err)
		}
		for _, it := range items {
			res.Records = append(res.Records, it.records()...)
		}
	} else {
		errs := &rowErrors{}
		scanner := bufio.NewScanner(br)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for line := 1; scanner.Scan(); line++ {
			data := bytes.TrimSpace(scanner.Bytes())
			if len(data) == 0 {
				continue
			}
			var it hc3Item
			if err := json.Unmarshal(data, &it); err != nil {
				res.Skipped++
				errs.add(line, err)
				continue
			}
			res.Records = append(res.Records, it.records()...)
		}
		if err := scanner.Err(); err != nil {
			return Result{}, fmt.Errorf("can't read hc3 lines: %w", err)
		}
		res.Problems = errs.err()
	}

	if len(res.Records) == 0 {
		return res, ErrNoRecords
	}
	return res, nil
}

func (it hc3Item) records() []Record {
	res := make([]Record, 0, len(it.HumanAnswers)+len(it.ChatGPTAnswers))
	for _, a := range it.HumanAnswers {
		if strings.TrimSpace(a) != "" {
			res = append(res, Record{Label: LabelHuman, Text: a})
		}
	}
	for _, a := range it.ChatGPTAnswers {
		if strings.TrimSpace(a) != "" {
			res = append(res, Record{Label: LabelAI, Text: a})
		}
	}
	return res
}

// resolveColumn returns index of the explicitly named column, or of the first alias found in the header
func resolveColumn(header []string, name string, aliases []string) (int, error) {
	find := func(n string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), n) {
				return i
			}
		}
		return -1
	}
	if name != "" {
		if idx := find(name); idx >= 0 {
			return idx, nil
		}
		return -1, fmt.Errorf("column %q not found in header %v", name, header)
	}
	for _, a := range aliases {
		if idx := find(a); idx >= 0 {
			return idx, nil
		}
	}
	return -1, fmt.Errorf("none of %v found in header %v", aliases, header)
}

func makeRecord(label, text string) (Record, error) {
	l, ok := ParseLabel(label)
	if !ok {
		return Record{}, fmt.Errorf("unknown label %q", label)
	}
	if strings.TrimSpace(text) == "" {
		return Record{}, errors.New("empty text")
	}
	return Record{Label: l, Text: text}, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case 0xEF: // utf-8 bom
			if _, err := br.Discard(2); err != nil {
				return 0, err
			}
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}
