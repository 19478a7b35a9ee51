// Wire codec
//
// This file is part of go-ttt.
//
// go-ttt is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-ttt is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-ttt. If not, see
// <http://www.gnu.org/licenses/>

package proto

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// Every message is one line: the "##" prefix, a TAG, then zero or
// more "|"-separated arguments.  A tag without arguments still
// carries a trailing pipe on output (##HELLO|), and an empty trailing
// argument on input is permitted.

const (
	// Inbound lines above this many bytes are rejected and count
	// as one invalid input
	MaxLine = 512

	prefix = "##"
)

var errMalformed = errors.New("malformed message")

type message struct {
	tag  string
	args []string
}

// arg returns argument I, or the empty string if it is absent.
func (m *message) arg(i int) string {
	if i >= len(m.args) {
		return ""
	}
	return m.args[i]
}

func parse(line string) (*message, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, prefix) {
		return nil, errMalformed
	}
	rest := line[len(prefix):]

	tag := rest
	var args []string
	if i := strings.IndexByte(rest, '|'); i != -1 {
		tag = rest[:i]
		args = strings.Split(rest[i+1:], "|")
	}
	if tag == "" {
		return nil, errMalformed
	}
	return &message{tag: tag, args: args}, nil
}

// format renders a single outbound line.  Each element in ARGS uses
// its concrete datatype for formatting; format does not check whether
// the arguments fit COMMAND.
func format(tag string, args ...interface{}) []byte {
	var buf bytes.Buffer
	buf.WriteString(prefix)
	buf.WriteString(tag)

	if len(args) == 0 {
		buf.WriteByte('|')
	}
	for _, arg := range args {
		buf.WriteByte('|')
		switch v := arg.(type) {
		case string:
			buf.WriteString(v)
		case int:
			fmt.Fprintf(&buf, "%d", v)
		case fmt.Stringer:
			buf.WriteString(v.String())
		default:
			panic(fmt.Sprintf("Unsupported type: %T", arg))
		}
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}
