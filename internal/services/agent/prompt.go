package agent

import (
	"encoding/json"

	"github.com/sashabaranov/go-openai"
)

// systemPrompt is the barista persona. The conversational rules mirror how
// a counter interaction actually flows: one clarifying question at a time,
// extract everything the customer volunteers, finalize only when complete.
const systemPrompt = `You are Luna, a warm and friendly barista at Moonbeam Coffee.

At the beginning of the session, introduce yourself naturally:
"Hi! Welcome to Moonbeam Coffee. I'm Luna, your barista today. What can I get started for you?"

Your single goal is to take a complete and accurate coffee order.

An order MUST include the following fields:
- drinkType (latte, cappuccino, americano, espresso, mocha, etc.)
- size      (Small, Medium, Large)
- milk      (whole, oat, soy, almond, or "none")
- extras    (optional list: sugar, syrup flavors, whipped cream, extra shots, ice, etc.)
- name      (customer's name)

Conversational behavior:
- Ask one and only one clarifying question at a time.
- Keep responses short, friendly, and conversational.
- When the customer gives ANY detail, call the update_order tool with
  exactly the fields they gave, restate what is filled, and ask about the
  next missing detail.
- If the customer gives multiple details at once, extract everything they
  gave in a single update_order call.
- Ask about missing fields in a natural order: drinkType, size, milk,
  extras, name.

Important rules:
- Never call finalize_order until drinkType, size, milk, and name are all
  known. Extras are optional.
- Never assume missing details. Always ask.
- Once the order is complete, confirm it in a single friendly sentence and
  then call finalize_order with the fully assembled order.`

// Tool names the model is allowed to call.
const (
	ToolUpdateOrder   = "update_order"
	ToolFinalizeOrder = "finalize_order"
)

var updateOrderSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"drinkType": {"type": "string", "description": "The beverage, e.g. latte or cappuccino."},
		"size": {"type": "string", "enum": ["Small", "Medium", "Large"]},
		"milk": {"type": "string", "description": "Milk choice; \"none\" for no milk."},
		"extras": {"type": "array", "items": {"type": "string"}, "description": "Full list of add-ons; replaces the previous list."},
		"name": {"type": "string", "description": "The customer's name."}
	}
}`)

var finalizeOrderSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"order": {
			"type": "object",
			"description": "The completed order.",
			"properties": {
				"drinkType": {"type": "string"},
				"size": {"type": "string", "enum": ["Small", "Medium", "Large"]},
				"milk": {"type": "string"},
				"extras": {"type": "array", "items": {"type": "string"}},
				"name": {"type": "string"}
			},
			"required": ["drinkType", "size", "milk", "name"]
		}
	},
	"required": ["order"]
}`)

func orderTools() []openai.Tool {
	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        ToolUpdateOrder,
				Description: "Record the order details the customer just gave. Only include fields they mentioned.",
				Parameters:  updateOrderSchema,
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        ToolFinalizeOrder,
				Description: "Finalize the completed order. Call only when drinkType, size, milk and name are all known.",
				Parameters:  finalizeOrderSchema,
			},
		},
	}
}
