// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package render

import "errors"

// ErrNilGraph is returned when rendering without a graph.
var ErrNilGraph = errors.New("no graph to render")
