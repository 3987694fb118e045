// Package tools defines the Tool interface for LLM agents and the read-only Registry of tools
// discovered at startup. Tools enable agents to interact with external systems and APIs in a structured way.
package tools
