package assets

import "embed"

// SystemInstruction is the persona and scope given to the support assistant
// when its conversation is created.
//
//go:embed system_instruction.md
var SystemInstruction string

// Catalog is the business catalog in TOML.
//
//go:embed catalog.toml
var Catalog []byte

//go:embed chat.html faq
var Dir embed.FS

// FAQDir is the directory of Dir holding the documents searched by the
// search_faq tool.
const FAQDir = "faq"
