package asm

// label is a bound jump target.
type label struct {
	index uint64
	loc   Location
}

type labelCounter struct {
	lines  []Line
	cursor int
	count  uint64
	labels map[string]label
	// strict rejects lines that are neither label definitions nor
	// instructions while counting.
	strict bool
}

// ResolveLabels binds every `: NAME` definition to the index of the next
// instruction slot in its code unit, then rewrites each `: NAME` reference
// into an unsigned number. Definition lines are removed from the result.
//
// Each unit (the top-level program or one function body) counts from zero.
// The label namespace is shared by all units.
func ResolveLabels(units [][]Line) ([][]Line, map[string]uint64, error) {
	return resolveLabels(units, false)
}

// resolveLabels is ResolveLabels. With strict set, every line must hold an
// instruction once macros are expanded, and the first line that does not is
// reported before any label reference is looked up.
func resolveLabels(units [][]Line, strict bool) ([][]Line, map[string]uint64, error) {
	labels := make(map[string]label)
	for _, unit := range units {
		c := &labelCounter{lines: unit, labels: labels, strict: strict}
		if err := c.block(nil); err != nil {
			return nil, nil, err
		}
	}

	out := make([][]Line, len(units))
	for i, unit := range units {
		lines, err := rewriteLabels(unit, labels)
		if err != nil {
			return nil, nil, err
		}
		out[i] = lines
	}

	table := make(map[string]uint64, len(labels))
	for name, l := range labels {
		table[name] = l.index
	}
	return out, table, nil
}

// block walks lines until the `}` matching opener, or to the end of the unit
// when opener is nil.
func (c *labelCounter) block(opener *Line) error {
	for c.cursor < len(c.lines) {
		line := c.lines[c.cursor]
		c.cursor++
		if line.Len() == 0 {
			continue
		}

		if isLone(line, RCurly) {
			if opener == nil {
				return newError(GrammarError, line.Loc(), "unexpected RCURLY without an open block")
			}
			return nil
		}

		if line.Tokens[0].Kind == Colon {
			if err := c.define(line); err != nil {
				return err
			}
			continue
		}

		if c.strict {
			if ins := codeLine(line); ins.Len() > 0 {
				if _, err := lookupInstruction(ins); err != nil {
					return err
				}
			}
		}
		if IsMnemonic(line.Tokens[0]) {
			c.count++
		}

		if last, _ := line.Last(); last.Kind == LCurly {
			if err := c.block(&line); err != nil {
				return err
			}
		}
	}
	if opener != nil {
		return newError(GrammarError, opener.Loc(), "unterminated block, expected RCURLY")
	}
	return nil
}

func (c *labelCounter) define(line Line) error {
	if line.Len() < 2 || line.Tokens[1].Kind != Ident {
		return expected(line, 1, "IDENT")
	}
	if line.Len() > 2 {
		return expected(line, 2, "end of line")
	}
	name := line.Tokens[1].Text
	if prev, ok := c.labels[name]; ok {
		e := newError(DuplicateDefinitionError, line.Locs[1], "redefinition of label %q", name)
		e.Notes = append(e.Notes, Note{Loc: prev.loc, Msg: "previously defined here"})
		return e
	}
	c.labels[name] = label{index: c.count, loc: line.Locs[1]}
	return nil
}

func isLabelDefinition(line Line) bool {
	return line.Len() == 2 && line.Tokens[0].Kind == Colon && line.Tokens[1].Kind == Ident
}

func rewriteLabels(lines []Line, labels map[string]label) ([]Line, error) {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		if line.Len() == 0 || isLabelDefinition(line) {
			continue
		}
		var nl Line
		for i := 0; i < line.Len(); i++ {
			tok := line.Tokens[i]
			if tok.Kind == Colon && i+1 < line.Len() && line.Tokens[i+1].Kind == Ident {
				name := line.Tokens[i+1].Text
				l, ok := labels[name]
				if !ok {
					return nil, newError(UnresolvedReferenceError, line.Locs[i+1], "unknown label %q", name)
				}
				nl.push(UnsignedTok(l.index), line.Locs[i])
				i++
				continue
			}
			nl.push(tok, line.Locs[i])
		}
		out = append(out, nl)
	}
	return out, nil
}
