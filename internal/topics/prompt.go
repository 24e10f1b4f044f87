package topics

import "fmt"

// TopicsPrompt asks for a JSON array of {topic, keywords}.
func TopicsPrompt(text string, maxTopics int) string {
	return fmt.Sprintf(`
You are a Smart Campus Assistant.

Analyze the following study material and list the main topics with relevant keywords.
- Provide at most %d topics.
- Each topic should have a list of 3-7 keywords that are important for understanding the topic.
- Output in JSON format ONLY like this:

[
  {
    "topic": "Topic Name",
    "keywords": ["keyword1", "keyword2", "keyword3"]
  }
]

STUDY MATERIAL:
%s
`, maxTopics, text)
}

// HierarchyPrompt asks for a JSON array of {topic, subtopics: [{name, keywords}]}.
func HierarchyPrompt(text string, maxTopics int) string {
	return fmt.Sprintf(`
You are a Smart Campus Assistant.

Analyze the following study material and generate a hierarchical structure:

- Maximum %d main topics
- Each topic can have 2-5 subtopics
- Include important keywords under each subtopic
- Output **JSON only** like this:

[
  {
    "topic": "Main Topic",
    "subtopics": [
        {"name": "Subtopic 1", "keywords": ["k1","k2","k3"]},
        {"name": "Subtopic 2", "keywords": ["k4","k5"]}
    ]
  }
]

STUDY MATERIAL:
%s
`, maxTopics, text)
}
