package gh

import (
	"encoding/json"
	"fmt"
)

// Discussions are only reachable through the GraphQL API.

const categoriesQuery = `
query($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    id
    discussionCategories(first: 25) {
      nodes { id name }
    }
  }
}`

const createDiscussionMutation = `
mutation($repositoryId: ID!, $categoryId: ID!, $title: String!, $body: String!) {
  createDiscussion(input: {repositoryId: $repositoryId, categoryId: $categoryId, title: $title, body: $body}) {
    discussion { url }
  }
}`

type categoriesResponse struct {
	Data struct {
		Repository struct {
			ID                   string `json:"id"`
			DiscussionCategories struct {
				Nodes []struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"nodes"`
			} `json:"discussionCategories"`
		} `json:"repository"`
	} `json:"data"`
}

type createDiscussionResponse struct {
	Data struct {
		CreateDiscussion struct {
			Discussion struct {
				URL string `json:"url"`
			} `json:"discussion"`
		} `json:"createDiscussion"`
	} `json:"data"`
}

// DiscussionCategories returns the repository's GraphQL node id and its
// discussion categories.
func (c *Client) DiscussionCategories(owner, repo string) (repositoryID string, categories []DiscussionCategory, err error) {
	output, err := c.run(nil,
		"api", "graphql",
		"-f", "query="+categoriesQuery,
		"-f", "owner="+owner,
		"-f", "name="+repo,
	)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list discussion categories: %w", err)
	}

	var resp categoriesResponse
	if err := json.Unmarshal(output, &resp); err != nil {
		return "", nil, fmt.Errorf("failed to parse discussion categories: %w", err)
	}

	for _, node := range resp.Data.Repository.DiscussionCategories.Nodes {
		categories = append(categories, DiscussionCategory{ID: node.ID, Name: node.Name})
	}
	return resp.Data.Repository.ID, categories, nil
}

// CreateDiscussion posts a discussion and returns its URL.
func (c *Client) CreateDiscussion(repositoryID, categoryID, title, body string) (string, error) {
	output, err := c.run(nil,
		"api", "graphql",
		"-f", "query="+createDiscussionMutation,
		"-f", "repositoryId="+repositoryID,
		"-f", "categoryId="+categoryID,
		"-f", "title="+title,
		"-f", "body="+body,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create discussion: %w", err)
	}

	var resp createDiscussionResponse
	if err := json.Unmarshal(output, &resp); err != nil {
		return "", fmt.Errorf("failed to parse discussion response: %w", err)
	}
	return resp.Data.CreateDiscussion.Discussion.URL, nil
}
