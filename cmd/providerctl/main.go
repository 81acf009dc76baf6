// providerctl inspects and exercises configured LLM providers.
//
// Usage:
//
//	# List supported provider types
//	providerctl providers
//
//	# Test every provider in a providers file
//	providerctl test --providers providers.yaml
//
//	# Test a stored configuration and record the outcome
//	providerctl test --config-id 3f0c... --save
//
//	# Send one chat message
//	providerctl chat --providers providers.yaml --name openai -m "ping"
package main

import "os"

func main() {
	os.Exit(Execute())
}
