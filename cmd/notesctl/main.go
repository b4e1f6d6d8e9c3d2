package main

// Operator commands against the configured notes store:
//   go run ./cmd/notesctl sweep

func main() {
	Execute()
}
