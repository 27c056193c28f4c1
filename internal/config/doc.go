// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation,
// so provider keys can stay out of the file:
//
//	feed:
//	  ws_url: wss://push.example.com/socket
//	  api_key: ${ODDS_FEED_KEY}
//	  contents:
//	    - liveEvents/football
package config
