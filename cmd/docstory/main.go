// Command docstory extracts content blocks from DOCX and HTML documents and
// publishes them as StoryMap stories.
package main

func main() {
	Execute()
}
