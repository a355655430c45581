// Package config loads stubd server settings and rule files.
//
// Settings come from DefaultServerConfig, then the rule file's server
// section, then STUBD_* environment variables, then command-line flags.
//
// A rule file is YAML:
//
//	server:
//	  port: 8080
//	include:
//	  - rules/**/*.yaml
//	fallback:
//	  status: 404
//	  json: {error: not found}
//	rules:
//	  - id: get-user
//	    priority: 0
//	    when:
//	      all:
//	        - method: GET
//	        - path: /users/{id}
//	        - not: {header: {name: Authorization}}
//	    respond:
//	      status: 200
//	      json: {name: ada}
//
// Each match node sets exactly one of all, any, not, always, method,
// methods, path, pathGlob, pathRegex, header, query, body, jsonPath, xpath
// or expr. A rule without when always matches. Strings of the form
// ${NAME} or ${NAME:-default} are replaced from the environment before
// parsing.
package config
