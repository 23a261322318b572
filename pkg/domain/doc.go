/*
Package domain defines the value types of the page builder.

An Element is a placed block (Heading, Paragraph, Image or List) with a store
assigned integer identity. The collection of elements is a flat ordered list:
position in the slice is the visual top-to-bottom order and nothing else
encodes it. DragSession and EditState are the transient states owned by the
drag controller and the content editor; Event and LifecycleHooks form the
input and output boundary of the engine.
*/
package domain
