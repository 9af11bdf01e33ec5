package project

// Схема файла проекта. Валидация выполняется до применения данных к
// хранилищу, чтобы отказ загрузки был структурной ошибкой с причиной,
// а не падением на полпути.
const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "name", "created", "dimensions", "blocks", "blockTypes", "blockCount"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "name": {"type": "string"},
    "created": {"type": "string"},
    "dimensions": {
      "type": "object",
      "required": ["x", "y", "z"],
      "properties": {
        "x": {"type": "integer", "minimum": 1},
        "y": {"type": "integer", "minimum": 1},
        "z": {"type": "integer", "minimum": 1}
      }
    },
    "currentView": {
      "type": "string",
      "enum": ["top", "isometric", "north", "south", "east", "west"]
    },
    "currentLevel": {"type": "integer", "minimum": 0},
    "blocks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["x", "y", "z", "type"],
        "properties": {
          "x": {"type": "integer"},
          "y": {"type": "integer"},
          "z": {"type": "integer"},
          "type": {"type": "string", "minLength": 1},
          "layer": {"type": "string"}
        }
      }
    },
    "blockTypes": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["color", "hatchPattern"],
        "properties": {
          "color": {"type": "string"},
          "hatchPattern": {
            "type": "string",
            "enum": ["solid", "diagonal", "crosshatch", "dots", "brick"]
          }
        }
      }
    },
    "blockCount": {"type": "integer", "minimum": 0}
  }
}`
