// Package file stores configuration as a TOML file under the mailrag
// home directory. The file is written with 0600 permissions because it
// carries OAuth client credentials and provider API keys.
package file
