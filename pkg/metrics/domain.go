// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "equiroute"

// Domain holds the business collectors.
type Domain struct {
	ContextSwitches    *prometheus.CounterVec
	CertificateUploads *prometheus.CounterVec
	CertificateDeletes prometheus.Counter
	ChecklistEvaluated *prometheus.CounterVec
	RegistrationPhases *prometheus.CounterVec
	RegistrationTime   prometheus.Histogram
}

// NewDomain creates the business collectors and registers them.
func NewDomain(registry prometheus.Registerer) *Domain {
	d := &Domain{
		ContextSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_switches_total",
			Help:      "Context switch attempts by target mode and result.",
		}, []string{"mode", "result"}),
		CertificateUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "certificate_uploads_total",
			Help:      "Uploaded certificates by entity type.",
		}, []string{"entity_type"}),
		CertificateDeletes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "certificate_deletes_total",
			Help:      "Deleted certificates.",
		}),
		ChecklistEvaluated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checklist_evaluations_total",
			Help:      "Compliance checklist evaluations by outcome.",
		}, []string{"compliant"}),
		RegistrationPhases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traces_phase_transitions_total",
			Help:      "TRACES registration phase transitions.",
		}, []string{"from", "to"}),
		RegistrationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "traces_registration_duration_seconds",
			Help:      "Duration of completed or failed TRACES registrations.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	registry.MustRegister(
		d.ContextSwitches,
		d.CertificateUploads,
		d.CertificateDeletes,
		d.ChecklistEvaluated,
		d.RegistrationPhases,
		d.RegistrationTime,
	)
	return d
}

// NewNopDomain returns collectors registered on a throwaway registry, for tests.
func NewNopDomain() *Domain {
	return NewDomain(prometheus.NewRegistry())
}
