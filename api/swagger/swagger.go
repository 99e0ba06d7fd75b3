package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Payroll API",
        "description": "Monthly payroll calculation, attendance ingestion and leave ledger for multi-campus organisations",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Payroll", "description": "Monthly payroll cycles and entries"},
        {"name": "Attendance", "description": "Attendance workbook ingestion"},
        {"name": "Employees", "description": "Salary structures and leave balances"},
        {"name": "Metrics", "description": "Operational status"}
    ],
    "paths": {
        "/payroll/calculate": {
            "post": {
                "tags": ["Payroll"],
                "summary": "Calculate payroll for a campus month",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CalculatePayrollRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Cycle locked or already processing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No working days in the period", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payroll/cycles": {
            "get": {
                "tags": ["Payroll"],
                "summary": "List payroll cycles",
                "parameters": [
                    {"name": "campusId", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "month", "in": "query", "type": "integer"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["DRAFT", "PROCESSING", "COMPLETED", "LOCKED"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payroll/cycles/{id}": {
            "get": {
                "tags": ["Payroll"],
                "summary": "Get payroll cycle",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payroll/cycles/{id}/lock": {
            "post": {
                "tags": ["Payroll"],
                "summary": "Lock a completed payroll cycle",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Cycle is not COMPLETED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payroll/entries": {
            "get": {
                "tags": ["Payroll"],
                "summary": "List payroll entries by cycle or employee",
                "parameters": [
                    {"name": "cycleId", "in": "query", "type": "string"},
                    {"name": "employeeId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payroll/entries/{id}": {
            "get": {
                "tags": ["Payroll"],
                "summary": "Get payroll entry with components",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payroll/summary": {
            "get": {
                "tags": ["Payroll"],
                "summary": "Payroll totals",
                "parameters": [
                    {"name": "cycleId", "in": "query", "type": "string"},
                    {"name": "campusId", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "month", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/uploads": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance uploads",
                "parameters": [
                    {"name": "campusId", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "month", "in": "query", "type": "integer"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Attendance"],
                "summary": "Upload an attendance workbook",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "campusId", "in": "formData", "required": true, "type": "string"},
                    {"name": "year", "in": "formData", "required": true, "type": "integer"},
                    {"name": "month", "in": "formData", "required": true, "type": "integer"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Ingested", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "Workbook too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/uploads/{id}": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Get attendance upload",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/uploads/{id}/process": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Ingest a pending upload",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Upload is not PENDING", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/records": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance records",
                "parameters": [
                    {"name": "employeeId", "in": "query", "type": "string"},
                    {"name": "campusId", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/summary": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Monthly attendance summary per employee",
                "parameters": [
                    {"name": "campusId", "in": "query", "required": true, "type": "string"},
                    {"name": "year", "in": "query", "required": true, "type": "integer"},
                    {"name": "month", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/employees/{id}/salary-structure": {
            "get": {
                "tags": ["Employees"],
                "summary": "Get salary structure",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "activeOn", "in": "query", "required": false, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Employees"],
                "summary": "Assign salary structure rows",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignSalaryStructureRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Overlapping effective range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/employees/{id}/leave-balance": {
            "get": {
                "tags": ["Employees"],
                "summary": "Get leave balance for a year",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Process counters snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CalculatePayrollRequest": {
            "type": "object",
            "properties": {
                "campusId": {"type": "string"},
                "year": {"type": "integer"},
                "month": {"type": "integer"},
                "employeeIds": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["campusId", "year", "month"]
        },
        "PayrollCycle": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "campusId": {"type": "string"},
                "year": {"type": "integer"},
                "month": {"type": "integer"},
                "totalWorkingDays": {"type": "integer"},
                "status": {"type": "string", "enum": ["DRAFT", "PROCESSING", "COMPLETED", "LOCKED"]},
                "lockedAt": {"type": "string", "format": "date-time"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "PayrollEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "payrollCycleId": {"type": "string"},
                "employeeId": {"type": "string"},
                "daysPresent": {"type": "string"},
                "daysAbsent": {"type": "string"},
                "paidLeavesUsed": {"type": "string"},
                "compLeavesUsed": {"type": "string"},
                "compLeavesEarned": {"type": "string"},
                "unpaidLeaves": {"type": "string"},
                "lossOfPay": {"type": "string"},
                "grossEarnings": {"type": "string"},
                "totalDeductions": {"type": "string"},
                "netPay": {"type": "string"},
                "components": {"type": "array", "items": {"$ref": "#/definitions/PayrollEntryComponent"}}
            }
        },
        "PayrollEntryComponent": {
            "type": "object",
            "properties": {
                "salaryComponentId": {"type": "string"},
                "componentName": {"type": "string"},
                "componentType": {"type": "string", "enum": ["EARNING", "DEDUCTION"]},
                "amount": {"type": "string"}
            }
        },
        "SalaryStructureItem": {
            "type": "object",
            "properties": {
                "salaryComponentId": {"type": "string"},
                "amount": {"type": "string"},
                "effectiveFrom": {"type": "string", "format": "date-time"},
                "effectiveTo": {"type": "string", "format": "date-time"}
            },
            "required": ["salaryComponentId", "amount", "effectiveFrom"]
        },
        "AssignSalaryStructureRequest": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/SalaryStructureItem"}}
            },
            "required": ["items"]
        },
        "LeaveBalance": {
            "type": "object",
            "properties": {
                "employeeId": {"type": "string"},
                "year": {"type": "integer"},
                "paidLeavesTotal": {"type": "string"},
                "paidLeavesUsed": {"type": "string"},
                "compLeavesEarned": {"type": "string"},
                "compLeavesUsed": {"type": "string"},
                "carryForwardLeaves": {"type": "string"},
                "paidAvailable": {"type": "string"},
                "compAvailable": {"type": "string"},
                "projected": {"type": "boolean"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
