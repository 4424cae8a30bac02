// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package history

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sonar_history_records_appended_total",
		Help: "Solve records written to the history store, by outcome.",
	}, []string{"success"})

	appendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sonar_history_append_failures_total",
		Help: "Writes to the history store that failed.",
	})
)
