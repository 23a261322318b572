/*
Package dsl builds page compositions as input-event scripts with a fluent API.

Instead of hand-writing the drag, drop and edit events a canvas would emit, describe
the page and let the Page produce them:

	page := dsl.New().
		Heading("Release notes").
		Paragraph("What changed this week.").
		List("faster saves", "sqlite backend").
		Move(3, 2)

	b := pagebuilder.New()
	if err := page.Apply(ctx, b); err != nil {
		log.Fatal(err)
	}

Element ids are predicted from the starting counter (1 for an empty document, see
From), which is what Move and Delete refer to.
*/
package dsl
