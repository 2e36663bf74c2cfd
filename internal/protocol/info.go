package protocol

import (
	"strconv"
	"strings"
)

// Score is an engine evaluation from the side to move.
type Score struct {
	// Centipawns is set when Mate is false.
	Centipawns int `json:"cp,omitempty"`
	// Mate is true when Moves holds a mate distance (negative: being mated).
	Mate  bool `json:"mate,omitempty"`
	Moves int  `json:"moves,omitempty"`
	// Bound is "lower", "upper" or empty for an exact score.
	Bound string `json:"bound,omitempty"`
}

// Info is the parsed form of an "info ..." line. Numeric fields the engine
// did not send are zero.
type Info struct {
	Depth    int      `json:"depth,omitempty"`
	SelDepth int      `json:"seldepth,omitempty"`
	MultiPV  int      `json:"multipv,omitempty"`
	Score    *Score   `json:"score,omitempty"`
	Nodes    int64    `json:"nodes,omitempty"`
	NPS      int64    `json:"nps,omitempty"`
	TimeMs   int64    `json:"time,omitempty"`
	HashFull int      `json:"hashfull,omitempty"`
	TBHits   int64    `json:"tbhits,omitempty"`
	CurrMove string   `json:"currmove,omitempty"`
	PV       []string `json:"pv,omitempty"`
	// String is the free text following "string", verbatim.
	String string `json:"string,omitempty"`
}

// ParseInfo parses an info line. It returns false when line is not one.
// Unknown keys and malformed numbers are skipped rather than rejected.
func ParseInfo(line string) (Info, bool) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 || tokens[0] != "info" {
		return Info{}, false
	}

	var info Info
	for i := 1; i < len(tokens); i++ {
		key := tokens[i]
		next := func() string {
			if i+1 < len(tokens) {
				i++
				return tokens[i]
			}
			return ""
		}

		switch key {
		case "depth":
			info.Depth = atoi(next())
		case "seldepth":
			info.SelDepth = atoi(next())
		case "multipv":
			info.MultiPV = atoi(next())
		case "nodes":
			info.Nodes = atoi64(next())
		case "nps":
			info.NPS = atoi64(next())
		case "time":
			info.TimeMs = atoi64(next())
		case "hashfull":
			info.HashFull = atoi(next())
		case "tbhits":
			info.TBHits = atoi64(next())
		case "currmove":
			info.CurrMove = next()
		case "score":
			score := &Score{}
			switch next() {
			case "cp":
				score.Centipawns = atoi(next())
			case "mate":
				score.Mate = true
				score.Moves = atoi(next())
			}
			if i+1 < len(tokens) {
				switch tokens[i+1] {
				case "lowerbound":
					score.Bound = "lower"
					i++
				case "upperbound":
					score.Bound = "upper"
					i++
				}
			}
			info.Score = score
		case "pv":
			info.PV = append([]string(nil), tokens[i+1:]...)
			i = len(tokens)
		case "string":
			if idx := strings.Index(line, " string "); idx >= 0 {
				info.String = strings.TrimSpace(line[idx+len(" string "):])
			}
			i = len(tokens)
		}
	}

	return info, true
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func atoi64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
