// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
)

// tooltip holds the facts shown when hovering an edge.
type tooltip struct {
	color      string
	ttl        int
	backHops   string
	requestTo  string
	annotation string
	rtt        time.Duration
	size       int
	answered   bool
	os         string
	repeat     int
}

// String renders the tooltip as a preformatted HTML block.
func (t tooltip) String() string {
	elapsed, size, perByte := noValue, noValue, noValue
	if t.answered {
		ms := milliseconds(t.rtt)
		elapsed = strconv.FormatFloat(ms, 'f', 3, 64) + "ms"
		size = strconv.Itoa(t.size) + "B"
		if t.size > 0 {
			perByte = strconv.FormatFloat(ms/float64(t.size), 'f', 3, 64) + "ms/B"
		}
	}
	annotation := t.annotation
	if annotation == "" {
		annotation = noAnnotation
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<pre style="color:%s">`, html.EscapeString(t.color))
	fmt.Fprintf(&b, "TTL: %d", t.ttl)
	fmt.Fprintf(&b, "<br/>Back-TTL: %s", t.backHops)
	fmt.Fprintf(&b, "<br/>Request to: %s", html.EscapeString(t.requestTo))
	fmt.Fprintf(&b, "<br/>annotation: %s", html.EscapeString(annotation))
	fmt.Fprintf(&b, "<br/>Time: %s", elapsed)
	fmt.Fprintf(&b, "<br/>Size: %s", size)
	fmt.Fprintf(&b, "<br/>Time/Size: %s", perByte)
	fmt.Fprintf(&b, "<br/>OS: %s", t.os)
	fmt.Fprintf(&b, "<br/>Repeat step: %d</pre>", t.repeat)
	return b.String()
}

// milliseconds converts a duration to fractional milliseconds.
func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
