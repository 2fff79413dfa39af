// Package factory is a small generic registry used to build modules from
// configuration. A module is a type name plus raw settings; factories decode
// the settings into typed structs and return the implementation.
//
// Metrics sinks and report stores are both built this way:
//
//	sinks:
//	  - type: prometheus
//	  - type: influx
//	    conf:
//	      url: http://localhost:8086
//	      bucket: checks
package factory
