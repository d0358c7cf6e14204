// Package config loads the sidepost configuration file.
//
// A configuration declares the record models shared by the CLI and the mock
// server, the naming convention used on the wire, and server and logging
// settings:
//
//	server:
//	  port: 4200
//	log:
//	  level: debug
//	naming:
//	  attributes: underscore
//	models:
//	  - name: post
//	    attributes: [title, publishedDate]
//	    relationships:
//	      - {name: author, kind: belongsTo}
//	      - {name: tags, kind: hasMany}
//	    include: [author, tags]
//	  - name: author
//	    attributes: [name]
//	  - name: tag
//	    attributes: [name]
//	    rejectIf: all_blank
//
// Files are YAML (.yaml, .yml) or JSON. ${VAR} and ${VAR:-default}
// references are expanded before parsing, and the SIDEPOST_* environment
// variables override the matching settings.
package config
