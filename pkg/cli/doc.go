// Package cli provides the stubd command-line interface.
//
//	stubd serve -f rules.yaml       serve the rules until interrupted
//	stubd validate -f rules.yaml    report every problem in a rule file
//	stubd explain -f rules.yaml     evaluate one request offline
//	stubd version
package cli
