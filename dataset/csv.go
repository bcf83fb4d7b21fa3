package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/mtaniguchi/statlearn/pkg/errors"
)

// ReadChoiceCSV reads a long-format choice dataset. Each record is one
// alternative within one task:
//
//	resp, task, alt, chosen, attr_1, ..., attr_K
//
// resp, task and alt are zero-based indices; chosen is 1 on the chosen
// alternative and 0 elsewhere. A header row is expected and skipped. The
// panel shape must be given up front so malformed files fail loudly rather
// than silently reshaping.
func ReadChoiceCSV(r io.Reader, nResp, nTask, nAlt, nAttr int) (*ChoicePanel, error) {
	panel, err := NewChoicePanel(nResp, nTask, nAlt, nAttr)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4 + nAttr

	if _, err := cr.Read(); err != nil {
		return nil, errors.Wrap(err, "reading choice CSV header")
	}

	seen := 0
	chosenCount := make([]int, nResp*nTask)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading choice CSV record")
		}

		resp, task, alt, err := parseIndices(rec)
		if err != nil {
			return nil, err
		}
		if resp >= nResp || task >= nTask || alt >= nAlt {
			return nil, errors.Newf("statlearn: ReadChoiceCSV: index (%d, %d, %d) outside panel shape (%d, %d, %d)",
				resp, task, alt, nResp, nTask, nAlt)
		}

		chosen, err := strconv.Atoi(rec[3])
		if err != nil {
			return nil, errors.Wrapf(err, "parsing chosen flag %q", rec[3])
		}
		if chosen == 1 {
			panel.SetChoice(resp, task, alt)
			chosenCount[resp*nTask+task]++
		}

		for k := 0; k < nAttr; k++ {
			v, err := strconv.ParseFloat(rec[4+k], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing attribute %d value %q", k, rec[4+k])
			}
			panel.Set(resp, task, alt, k, v)
		}
		seen++
	}

	if want := nResp * nTask * nAlt; seen != want {
		return nil, errors.NewDimensionError("ReadChoiceCSV", want, seen, 0)
	}
	for obs, c := range chosenCount {
		if c != 1 {
			return nil, errors.Newf("statlearn: ReadChoiceCSV: observation %d has %d chosen alternatives, want exactly 1", obs, c)
		}
	}

	return panel, panel.Validate()
}

func parseIndices(rec []string) (resp, task, alt int, err error) {
	resp, err = strconv.Atoi(rec[0])
	if err != nil {
		return 0, 0, 0, errors.Wrapf(err, "parsing resp index %q", rec[0])
	}
	task, err = strconv.Atoi(rec[1])
	if err != nil {
		return 0, 0, 0, errors.Wrapf(err, "parsing task index %q", rec[1])
	}
	alt, err = strconv.Atoi(rec[2])
	if err != nil {
		return 0, 0, 0, errors.Wrapf(err, "parsing alt index %q", rec[2])
	}
	return resp, task, alt, nil
}

// ReadChoiceCSVFile opens path and reads it with ReadChoiceCSV.
func ReadChoiceCSVFile(path string, nResp, nTask, nAlt, nAttr int) (*ChoicePanel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	return ReadChoiceCSV(f, nResp, nTask, nAlt, nAttr)
}
