package dataset

import (
	"strings"
	"testing"
)

const choiceCSV = `resp,task,alt,chosen,attr_1,attr_2
0,0,0,0,1.0,0.5
0,0,1,1,-0.5,2.0
0,1,0,1,0.0,0.0
0,1,1,0,3.0,-1.0
1,0,0,1,1.5,1.5
1,0,1,0,-2.0,0.5
1,1,0,0,0.5,0.5
1,1,1,1,1.0,-1.0
`

func TestReadChoiceCSV(t *testing.T) {
	panel, err := ReadChoiceCSV(strings.NewReader(choiceCSV), 2, 2, 2, 2)
	if err != nil {
		t.Fatalf("ReadChoiceCSV() error = %v", err)
	}

	if panel.NResp != 2 || panel.NTask != 2 || panel.NAlt != 2 || panel.NAttr != 2 {
		t.Fatalf("panel shape = (%d, %d, %d, %d), want (2, 2, 2, 2)",
			panel.NResp, panel.NTask, panel.NAlt, panel.NAttr)
	}

	if got := panel.At(0, 0, 1, 1); got != 2.0 {
		t.Errorf("At(0,0,1,1) = %v, want 2.0", got)
	}
	if got := panel.At(1, 0, 0, 0); got != 1.5 {
		t.Errorf("At(1,0,0,0) = %v, want 1.5", got)
	}

	// [resp][task] -> chosen alternative
	wantChoices := [2][2]int{{1, 0}, {0, 1}}
	for r := 0; r < 2; r++ {
		for task := 0; task < 2; task++ {
			if got := panel.Choice(r, task); got != wantChoices[r][task] {
				t.Errorf("Choice(%d,%d) = %d, want %d", r, task, got, wantChoices[r][task])
			}
		}
	}
}

func TestReadChoiceCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{
			"index outside panel shape",
			"resp,task,alt,chosen,attr_1\n5,0,0,1,1.0\n",
		},
		{
			"non-numeric attribute",
			"resp,task,alt,chosen,attr_1\n0,0,0,1,abc\n0,0,1,0,1.0\n",
		},
		{
			"non-numeric index",
			"resp,task,alt,chosen,attr_1\nx,0,0,1,1.0\n",
		},
		{
			"wrong field count",
			"resp,task,alt,chosen,attr_1\n0,0,0,1\n",
		},
		{
			"missing records",
			"resp,task,alt,chosen,attr_1\n0,0,0,1,1.0\n",
		},
		{
			"no chosen alternative",
			"resp,task,alt,chosen,attr_1\n0,0,0,0,1.0\n0,0,1,0,2.0\n",
		},
		{
			"two chosen alternatives",
			"resp,task,alt,chosen,attr_1\n0,0,0,1,1.0\n0,0,1,1,2.0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadChoiceCSV(strings.NewReader(tt.csv), 1, 1, 2, 1); err == nil {
				t.Error("ReadChoiceCSV() should fail")
			}
		})
	}
}
