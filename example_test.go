package specstory_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	specstory "github.com/specstoryai/specstory-go"
)

func ExampleNew() {
	// Reads the key from SPECSTORY_API_KEY when the argument is empty.
	client, err := specstory.New("",
		specstory.WithTimeout(10*time.Second),
		specstory.WithCache(200, 5*time.Minute),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	projects, err := client.Projects.List(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	for _, p := range projects {
		fmt.Println(p.Name)
	}
}

func ExampleSessionsService_Write() {
	client, err := specstory.New("sk-...")
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	sess, err := client.Sessions.Write(context.Background(), "my-project", specstory.SessionWriteParams{
		Name:     "Refactoring the importer",
		Markdown: "# Refactoring the importer\n...",
		Metadata: &specstory.SessionMetadata{ClientName: "vscode"},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(sess.ID)
}

func ExampleSessionsService_Read_conditional() {
	client, err := specstory.New("sk-...")
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	ctx := context.Background()
	sess, err := client.Sessions.Read(ctx, "my-project", "session-id", nil)
	if err != nil {
		log.Fatal(err)
	}

	// Later: ask only for changes since the copy we hold.
	_, err = client.Sessions.Read(ctx, "my-project", "session-id", &specstory.SessionReadOptions{
		IfNoneMatch: sess.Etag,
	})
	if errors.Is(err, specstory.ErrNotModified) {
		fmt.Println("still current")
	}
}

func ExampleGraphQLService_Search() {
	client, err := specstory.New("sk-...")
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	results, err := client.GraphQL.Search(context.Background(), "flaky test", &specstory.SearchOptions{
		Limit: 10,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(results.Total)
}
